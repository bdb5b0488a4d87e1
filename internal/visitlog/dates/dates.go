// Package dates renders elapsed-day values for the "last visit" column.
package dates

import (
	"strconv"
	"time"

	"github.com/gartstein/visitlog/internal/visitlog/models"
)

const (
	// NoVisits is shown for a company with no work logs.
	NoVisits = "no visits"
	// Excluded is shown for gray-tagged companies.
	Excluded = "-"
)

// DaysSince returns the number of calendar days between ref and now, with
// now taken as a date in its own location. Time of day plays no part. It
// returns nil when ref is nil. A ref after now yields a negative count.
func DaysSince(ref *models.Date, now time.Time) *int {
	if ref == nil {
		return nil
	}
	days := ref.DaysUntil(models.DateOf(now))
	return &days
}

// FormatElapsed returns the display value of the last-visit column.
func FormatElapsed(row *models.CompanyStats, now time.Time) string {
	if row.IsGray() {
		return Excluded
	}
	days := DaysSince(row.LastVisitDate, now)
	if days == nil {
		return NoVisits
	}
	n := *days
	if n < 0 {
		n = 0
	}
	return strconv.Itoa(n) + "d"
}

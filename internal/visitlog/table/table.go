// Package table orders aggregated company rows for display.
//
// Ordering is stable: rows with equal keys keep their input order. When
// sorting by last visit date, gray-tagged companies are placed after every
// other row in both directions and keep their input order among
// themselves.
package table

import (
	"fmt"
	"slices"
	"strings"

	e "github.com/gartstein/visitlog/internal/visitlog/errors"
	"github.com/gartstein/visitlog/internal/visitlog/models"
)

// SortKey selects the column rows are ordered by.
type SortKey string

const (
	KeyNone          SortKey = ""
	KeyName          SortKey = "name"
	KeyAddress       SortKey = "address"
	KeyContactPerson SortKey = "contact_person"
	KeyPhone         SortKey = "phone"
	KeyBusinessType  SortKey = "business_type"
	KeyVisitCount    SortKey = "visit_count"
	KeyLastVisitDate SortKey = "last_visit_date"
)

// Keys lists the sortable columns in display order.
var Keys = []SortKey{
	KeyName, KeyAddress, KeyContactPerson, KeyPhone,
	KeyBusinessType, KeyVisitCount, KeyLastVisitDate,
}

// Direction is the sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseSortKey accepts a column name; "" yields KeyNone.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if k == KeyNone || slices.Contains(Keys, k) {
		return k, nil
	}
	return KeyNone, fmt.Errorf("%w: unknown sort key %q", e.ErrInvalidInput, s)
}

// ParseDirection accepts "asc" or "desc"; "" yields Asc.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", Asc:
		return Asc, nil
	case Desc:
		return Desc, nil
	}
	return Asc, fmt.Errorf("%w: unknown sort direction %q", e.ErrInvalidInput, s)
}

// SortState is the current column and direction of the table. The zero
// value means "unsorted".
type SortState struct {
	Key       SortKey
	Direction Direction
}

// Toggle returns the state after the user selects key: the same key flips
// the direction, a different key starts ascending.
func (s SortState) Toggle(key SortKey) SortState {
	if s.Key == key && key != KeyNone {
		if s.Direction == Asc {
			return SortState{Key: key, Direction: Desc}
		}
		return SortState{Key: key, Direction: Asc}
	}
	return SortState{Key: key, Direction: Asc}
}

// Apply sorts rows according to s.
func (s SortState) Apply(rows []models.CompanyStats) []models.CompanyStats {
	return SortRows(rows, s.Key, s.Direction)
}

// SortRows returns a sorted copy of rows. The input slice is not modified.
func SortRows(rows []models.CompanyStats, key SortKey, dir Direction) []models.CompanyStats {
	out := slices.Clone(rows)
	if key == KeyNone {
		return out
	}

	cmp := comparator(key)
	if dir == Desc {
		asc := cmp
		cmp = func(a, b *models.CompanyStats) int { return asc(b, a) }
	}

	if key != KeyLastVisitDate {
		slices.SortStableFunc(out, func(a, b models.CompanyStats) int { return cmp(&a, &b) })
		return out
	}

	ranked := make([]models.CompanyStats, 0, len(out))
	var gray []models.CompanyStats
	for _, r := range out {
		if r.IsGray() {
			gray = append(gray, r)
			continue
		}
		ranked = append(ranked, r)
	}
	slices.SortStableFunc(ranked, func(a, b models.CompanyStats) int { return cmp(&a, &b) })
	return append(ranked, gray...)
}

func comparator(key SortKey) func(a, b *models.CompanyStats) int {
	switch key {
	case KeyName:
		return byText(func(r *models.CompanyStats) string { return r.Name })
	case KeyAddress:
		return byText(func(r *models.CompanyStats) string { return r.Address })
	case KeyContactPerson:
		return byText(func(r *models.CompanyStats) string { return r.ContactPerson })
	case KeyPhone:
		return byText(func(r *models.CompanyStats) string { return r.Phone })
	case KeyBusinessType:
		return byText(func(r *models.CompanyStats) string { return r.BusinessType })
	case KeyVisitCount:
		return func(a, b *models.CompanyStats) int {
			return a.VisitCount - b.VisitCount
		}
	case KeyLastVisitDate:
		return func(a, b *models.CompanyStats) int {
			// A missing date is the earliest possible date.
			switch {
			case a.LastVisitDate == nil && b.LastVisitDate == nil:
				return 0
			case a.LastVisitDate == nil:
				return -1
			case b.LastVisitDate == nil:
				return 1
			}
			return a.LastVisitDate.Compare(*b.LastVisitDate)
		}
	}
	return func(_, _ *models.CompanyStats) int { return 0 }
}

func byText(field func(*models.CompanyStats) string) func(a, b *models.CompanyStats) int {
	return func(a, b *models.CompanyStats) int {
		return strings.Compare(strings.ToLower(field(a)), strings.ToLower(field(b)))
	}
}

// Package validation checks records before they are sent to the store.
// Checks are synchronous and have no side effects.
package validation

import (
	"regexp"
	"strings"
	"time"

	e "github.com/gartstein/visitlog/internal/visitlog/errors"
	"github.com/gartstein/visitlog/internal/visitlog/models"
)

var visitTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)

// Company requires a name and a region. Other fields pass through
// unchecked, apart from the color which must be one of the known tags.
func Company(c *models.Company) error {
	verr := &e.ValidationError{Entity: "company"}
	if strings.TrimSpace(c.Name) == "" {
		verr.Add("name", "required")
	}
	if strings.TrimSpace(c.Region) == "" {
		verr.Add("region", "required")
	}
	if !c.Color.Valid() {
		verr.Add("color", "unknown color "+string(c.Color))
	}
	return verr.OrNil()
}

// WorkLog requires a visit date, purpose and discussion content. The visit
// date may not be after today (taken from now's location) and a follow-up
// date must be strictly after the visit date.
func WorkLog(w *models.WorkLog, now time.Time) error {
	verr := &e.ValidationError{Entity: "work log"}
	if w.VisitDate.IsZero() {
		verr.Add("visit_date", "required")
	} else if w.VisitDate.After(models.DateOf(now)) {
		verr.Add("visit_date", "cannot be in the future")
	}
	if strings.TrimSpace(w.VisitPurpose) == "" {
		verr.Add("visit_purpose", "required")
	}
	if strings.TrimSpace(w.DiscussionContent) == "" {
		verr.Add("discussion_content", "required")
	}
	if w.FollowUpDate != nil && !w.VisitDate.IsZero() && !w.FollowUpDate.After(w.VisitDate) {
		verr.Add("follow_up_date", "must be after the visit date")
	}
	if w.VisitTime != "" && !visitTimePattern.MatchString(w.VisitTime) {
		verr.Add("visit_time", "expected HH:MM")
	}
	if w.EstimatedAmount != nil && *w.EstimatedAmount < 0 {
		verr.Add("estimated_amount", "cannot be negative")
	}
	return verr.OrNil()
}

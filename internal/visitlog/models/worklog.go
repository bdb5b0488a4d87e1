package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkLog is a record of one visit to (or contact with) a company.
type WorkLog struct {
	ID uuid.UUID
	// CompanyID references the company the visit belongs to.
	CompanyID uuid.UUID
	// VisitDate is the calendar date of the visit. Required, never in the future.
	VisitDate Date
	// VisitTime is an optional "HH:MM" time of day.
	VisitTime          string
	VisitPurpose       string
	MeetingPerson      string
	MeetingPersonTitle string
	DiscussionContent  string
	ProposedItems      string
	EstimatedAmount    *float64
	CustomerResponse   string
	NextAction         string
	// FollowUpDate must be strictly after VisitDate when set.
	FollowUpDate    *Date
	AdditionalNotes string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// WorkLogUpdate carries the fields to change on an existing WorkLog.
// ClearFollowUp removes the follow-up date; FollowUpDate sets it.
// ClearEstimatedAmount and EstimatedAmount work the same way.
type WorkLogUpdate struct {
	ID                 uuid.UUID
	VisitDate          *Date
	VisitTime          *string
	VisitPurpose       *string
	MeetingPerson      *string
	MeetingPersonTitle *string
	DiscussionContent  *string
	ProposedItems      *string
	EstimatedAmount    *float64
	// ClearEstimatedAmount removes the amount; it wins over EstimatedAmount.
	ClearEstimatedAmount bool
	CustomerResponse     *string
	NextAction           *string
	FollowUpDate         *Date
	ClearFollowUp        bool
	AdditionalNotes      *string
}

// Apply returns a copy of w with the update's fields set.
func (u *WorkLogUpdate) Apply(w WorkLog) WorkLog {
	if u.VisitDate != nil {
		w.VisitDate = *u.VisitDate
	}
	setString(&w.VisitTime, u.VisitTime)
	setString(&w.VisitPurpose, u.VisitPurpose)
	setString(&w.MeetingPerson, u.MeetingPerson)
	setString(&w.MeetingPersonTitle, u.MeetingPersonTitle)
	setString(&w.DiscussionContent, u.DiscussionContent)
	setString(&w.ProposedItems, u.ProposedItems)
	switch {
	case u.ClearEstimatedAmount:
		w.EstimatedAmount = nil
	case u.EstimatedAmount != nil:
		amount := *u.EstimatedAmount
		w.EstimatedAmount = &amount
	}
	setString(&w.CustomerResponse, u.CustomerResponse)
	setString(&w.NextAction, u.NextAction)
	switch {
	case u.ClearFollowUp:
		w.FollowUpDate = nil
	case u.FollowUpDate != nil:
		d := *u.FollowUpDate
		w.FollowUpDate = &d
	}
	setString(&w.AdditionalNotes, u.AdditionalNotes)
	return w
}

// WorkLogDraft is the unsubmitted state of a new work log form.
type WorkLogDraft struct {
	CompanyID          uuid.UUID `json:"company_id"`
	VisitDate          string    `json:"visit_date,omitempty"`
	VisitTime          string    `json:"visit_time,omitempty"`
	VisitPurpose       string    `json:"visit_purpose,omitempty"`
	MeetingPerson      string    `json:"meeting_person,omitempty"`
	MeetingPersonTitle string    `json:"meeting_person_title,omitempty"`
	DiscussionContent  string    `json:"discussion_content,omitempty"`
	ProposedItems      string    `json:"proposed_items,omitempty"`
	EstimatedAmount    *float64  `json:"estimated_amount,omitempty"`
	CustomerResponse   string    `json:"customer_response,omitempty"`
	NextAction         string    `json:"next_action,omitempty"`
	FollowUpDate       string    `json:"follow_up_date,omitempty"`
	AdditionalNotes    string    `json:"additional_notes,omitempty"`
	SavedAt            time.Time `json:"saved_at"`
}

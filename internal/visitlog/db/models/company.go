// Package models contains the table rows of the data store, configured to
// work using GORM as the ORM, and their mapping to the domain models.
package models

import (
	"time"

	domain "github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/google/uuid"
)

// Company is a row of the companies table.
type Company struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name          string    `gorm:"column:company_name;not null;index"`
	Region        string    `gorm:"not null;index"`
	Address       string
	ContactPerson string
	Phone         string
	Email         string
	BusinessType  string
	Notes         string `gorm:"type:text"`
	Color         string `gorm:"column:company_color;size:16"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// WorkLog is a row of the work_logs table.
type WorkLog struct {
	ID                 uuid.UUID    `gorm:"type:uuid;primaryKey"`
	CompanyID          uuid.UUID    `gorm:"type:uuid;not null;index"`
	VisitDate          domain.Date  `gorm:"type:date;not null;index"`
	VisitTime          string       `gorm:"size:8"`
	VisitPurpose       string       `gorm:"not null"`
	MeetingPerson      string
	MeetingPersonTitle string
	DiscussionContent  string `gorm:"type:text;not null"`
	ProposedItems      string `gorm:"type:text"`
	EstimatedAmount    *float64
	CustomerResponse   string       `gorm:"type:text"`
	NextAction         string       `gorm:"type:text"`
	FollowUpDate       *domain.Date `gorm:"type:date"`
	AdditionalNotes    string       `gorm:"type:text"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CompanyFromDomain maps a domain company to a row.
func CompanyFromDomain(c *domain.Company) *Company {
	return &Company{
		ID:            c.ID,
		Name:          c.Name,
		Region:        c.Region,
		Address:       c.Address,
		ContactPerson: c.ContactPerson,
		Phone:         c.Phone,
		Email:         c.Email,
		BusinessType:  c.BusinessType,
		Notes:         c.Notes,
		Color:         string(c.Color),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// ToDomain maps the row back to a domain company.
func (c *Company) ToDomain() *domain.Company {
	return &domain.Company{
		ID:            c.ID,
		Name:          c.Name,
		Region:        c.Region,
		Address:       c.Address,
		ContactPerson: c.ContactPerson,
		Phone:         c.Phone,
		Email:         c.Email,
		BusinessType:  c.BusinessType,
		Notes:         c.Notes,
		Color:         domain.Color(c.Color),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// CompanyUpdates returns the column map for a partial update. Only the
// fields set on u appear in it.
func CompanyUpdates(u *domain.CompanyUpdate) map[string]interface{} {
	m := map[string]interface{}{}
	put := func(col string, v *string) {
		if v != nil {
			m[col] = *v
		}
	}
	put("company_name", u.Name)
	put("region", u.Region)
	put("address", u.Address)
	put("contact_person", u.ContactPerson)
	put("phone", u.Phone)
	put("email", u.Email)
	put("business_type", u.BusinessType)
	put("notes", u.Notes)
	if u.Color != nil {
		m["company_color"] = string(*u.Color)
	}
	return m
}

// WorkLogFromDomain maps a domain work log to a row.
func WorkLogFromDomain(w *domain.WorkLog) *WorkLog {
	return &WorkLog{
		ID:                 w.ID,
		CompanyID:          w.CompanyID,
		VisitDate:          w.VisitDate,
		VisitTime:          w.VisitTime,
		VisitPurpose:       w.VisitPurpose,
		MeetingPerson:      w.MeetingPerson,
		MeetingPersonTitle: w.MeetingPersonTitle,
		DiscussionContent:  w.DiscussionContent,
		ProposedItems:      w.ProposedItems,
		EstimatedAmount:    w.EstimatedAmount,
		CustomerResponse:   w.CustomerResponse,
		NextAction:         w.NextAction,
		FollowUpDate:       w.FollowUpDate,
		AdditionalNotes:    w.AdditionalNotes,
		CreatedAt:          w.CreatedAt,
		UpdatedAt:          w.UpdatedAt,
	}
}

// ToDomain maps the row back to a domain work log.
func (w *WorkLog) ToDomain() *domain.WorkLog {
	return &domain.WorkLog{
		ID:                 w.ID,
		CompanyID:          w.CompanyID,
		VisitDate:          w.VisitDate,
		VisitTime:          w.VisitTime,
		VisitPurpose:       w.VisitPurpose,
		MeetingPerson:      w.MeetingPerson,
		MeetingPersonTitle: w.MeetingPersonTitle,
		DiscussionContent:  w.DiscussionContent,
		ProposedItems:      w.ProposedItems,
		EstimatedAmount:    w.EstimatedAmount,
		CustomerResponse:   w.CustomerResponse,
		NextAction:         w.NextAction,
		FollowUpDate:       w.FollowUpDate,
		AdditionalNotes:    w.AdditionalNotes,
		CreatedAt:          w.CreatedAt,
		UpdatedAt:          w.UpdatedAt,
	}
}

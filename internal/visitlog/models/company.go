// Package models defines the core domain models: companies, their visit
// logs, and the derived per-company visit statistics.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Color is an optional tag attached to a company.
type Color string

const (
	ColorNone   Color = ""
	ColorRed    Color = "red"
	ColorOrange Color = "orange"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorPurple Color = "purple"
	// ColorGray excludes a company from recency ranking.
	ColorGray Color = "gray"
)

var colorDisplay = map[Color]struct{ emoji, name string }{
	ColorRed:    {"🔴", "red"},
	ColorOrange: {"🟠", "orange"},
	ColorYellow: {"🟡", "yellow"},
	ColorGreen:  {"🟢", "green"},
	ColorBlue:   {"🔵", "blue"},
	ColorPurple: {"🟣", "purple"},
	ColorGray:   {"⚫", "gray"},
}

// Valid reports whether c is unset or one of the known colors.
func (c Color) Valid() bool {
	if c == ColorNone {
		return true
	}
	_, ok := colorDisplay[c]
	return ok
}

// Emoji returns the marker shown next to a tagged company, or "".
func (c Color) Emoji() string {
	return colorDisplay[c].emoji
}

// Label returns the emoji and color name; unknown values are returned as-is.
func (c Color) Label() string {
	d, ok := colorDisplay[c]
	if !ok {
		return string(c)
	}
	return d.emoji + " " + d.name
}

// Company defines the domain model for a client organisation.
type Company struct {
	// ID is the unique identifier for the company.
	ID uuid.UUID
	// Name is the company's name. Required.
	Name string
	// Region is where the company is located. Required.
	Region        string
	Address       string
	ContactPerson string
	Phone         string
	Email         string
	BusinessType  string
	Notes         string
	Color         Color
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsGray reports whether the company is excluded from recency ranking.
func (c *Company) IsGray() bool {
	return c.Color == ColorGray
}

// CompanyUpdate represents the fields that can be updated for a Company.
// Pointer types are used to allow partial updates.
type CompanyUpdate struct {
	ID            uuid.UUID
	Name          *string
	Region        *string
	Address       *string
	ContactPerson *string
	Phone         *string
	Email         *string
	BusinessType  *string
	Notes         *string
	Color         *Color
}

// Apply returns a copy of c with the update's non-nil fields set.
func (u *CompanyUpdate) Apply(c Company) Company {
	setString(&c.Name, u.Name)
	setString(&c.Region, u.Region)
	setString(&c.Address, u.Address)
	setString(&c.ContactPerson, u.ContactPerson)
	setString(&c.Phone, u.Phone)
	setString(&c.Email, u.Email)
	setString(&c.BusinessType, u.BusinessType)
	setString(&c.Notes, u.Notes)
	if u.Color != nil {
		c.Color = *u.Color
	}
	return c
}

// CompanyFilter narrows a company listing. Empty fields match everything;
// non-empty fields are case-insensitive partial matches.
type CompanyFilter struct {
	Region string
	Name   string
}

// IsEmpty reports whether the filter matches every company.
func (f CompanyFilter) IsEmpty() bool {
	return f.Region == "" && f.Name == ""
}

// CompanyStats is a company annotated with its visit statistics.
// It is derived on every load and never persisted.
type CompanyStats struct {
	Company
	VisitCount int
	// LastVisitDate is nil when the company has no visits.
	LastVisitDate *Date
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

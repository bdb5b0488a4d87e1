// Package drafts keeps unsubmitted work log forms, one per company, in a
// local SQLite database, and debounces saves while a form is being typed.
package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	e "github.com/gartstein/visitlog/internal/visitlog/errors"
	"github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Key returns the storage key of a company's draft.
func Key(companyID uuid.UUID) string {
	return "worklog_draft_" + companyID.String()
}

type draftRow struct {
	Key       string    `gorm:"column:draft_key;primaryKey"`
	CompanyID uuid.UUID `gorm:"type:uuid;index"`
	Payload   datatypes.JSONType[models.WorkLogDraft]
	SavedAt   time.Time
}

func (draftRow) TableName() string { return "work_log_drafts" }

// Store persists drafts.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Open opens (or creates) the draft database at path. ":memory:" keeps
// drafts for the life of the process only.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open draft store: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return NewStore(db)
}

// NewStore migrates the drafts table on db.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&draftRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate draft store: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Save stores draft as the company's current draft, replacing any earlier one.
func (s *Store) Save(ctx context.Context, draft models.WorkLogDraft) error {
	if draft.CompanyID == uuid.Nil {
		return fmt.Errorf("%w: draft without company", e.ErrInvalidInput)
	}
	draft.SavedAt = s.now()
	row := draftRow{
		Key:       Key(draft.CompanyID),
		CompanyID: draft.CompanyID,
		Payload:   datatypes.NewJSONType(draft),
		SavedAt:   draft.SavedAt,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "draft_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "saved_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Restore returns the company's draft, or ErrNotFound.
func (s *Store) Restore(ctx context.Context, companyID uuid.UUID) (*models.WorkLogDraft, error) {
	var row draftRow
	err := s.db.WithContext(ctx).First(&row, "draft_key = ?", Key(companyID)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, fmt.Errorf("failed to restore draft: %w", err)
	}
	draft := row.Payload.Data()
	return &draft, nil
}

// Clear removes the company's draft. Clearing a missing draft is not an error.
func (s *Store) Clear(ctx context.Context, companyID uuid.UUID) error {
	err := s.db.WithContext(ctx).Delete(&draftRow{}, "draft_key = ?", Key(companyID)).Error
	if err != nil {
		return fmt.Errorf("failed to clear draft: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

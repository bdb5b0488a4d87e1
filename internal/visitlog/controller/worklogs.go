package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	e "github.com/gartstein/visitlog/internal/visitlog/errors"
	"github.com/gartstein/visitlog/internal/visitlog/events"
	"github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/gartstein/visitlog/internal/visitlog/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DraftDiscarder clears a company's saved work log draft.
type DraftDiscarder interface {
	Discard(ctx context.Context, companyID uuid.UUID) error
}

// WorkLogService manages the visit records of companies.
type WorkLogService struct {
	repo     Repository
	producer EventProducer
	drafts   DraftDiscarder
	logger   *zap.Logger
	now      func() time.Time
}

// NewWorkLogService constructs a WorkLogService. drafts may be nil.
func NewWorkLogService(repo Repository, producer EventProducer, drafts DraftDiscarder, logger *zap.Logger) *WorkLogService {
	return &WorkLogService{
		repo:     repo,
		producer: producer,
		drafts:   drafts,
		logger:   logger.Named("worklog_service"),
		now:      time.Now,
	}
}

// WithClock replaces the source of the current time, which decides what
// "today" is for visit date checks.
func (s *WorkLogService) WithClock(now func() time.Time) *WorkLogService {
	s.now = now
	return s
}

// ListByCompany returns a company's work logs, most recent visit first.
func (s *WorkLogService) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.WorkLog, error) {
	if _, err := s.company(ctx, companyID); err != nil {
		return nil, err
	}
	logs, err := s.repo.ListWorkLogsByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list work logs: %w", err)
	}
	return logs, nil
}

// GetWorkLog retrieves a work log by ID.
func (s *WorkLogService) GetWorkLog(ctx context.Context, id uuid.UUID) (*models.WorkLog, error) {
	log, err := s.repo.GetWorkLog(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get work log: %w", err)
	}
	return log, nil
}

// CreateWorkLog validates and stores a new visit record for an existing
// company, then clears the company's draft.
func (s *WorkLogService) CreateWorkLog(ctx context.Context, log *models.WorkLog) (*models.WorkLog, error) {
	if log.CompanyID == uuid.Nil {
		return nil, fmt.Errorf("%w: company ID required", e.ErrInvalidInput)
	}
	if err := validation.WorkLog(log, s.now()); err != nil {
		return nil, err
	}
	if _, err := s.company(ctx, log.CompanyID); err != nil {
		return nil, err
	}

	log.ID = uuid.New()
	if err := s.repo.CreateWorkLog(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to create work log: %w", err)
	}

	if s.drafts != nil {
		if err := s.drafts.Discard(ctx, log.CompanyID); err != nil {
			s.logger.Warn("Failed to clear draft",
				zap.Error(err),
				zap.String("company_id", log.CompanyID.String()),
			)
		}
	}
	s.producer.Produce(stamped(ctx, events.WorkLogEvent(events.WorkLogCreated, log)))
	return log, nil
}

// UpdateWorkLog applies update to the stored work log and validates the
// result before writing it.
func (s *WorkLogService) UpdateWorkLog(ctx context.Context, update *models.WorkLogUpdate) (*models.WorkLog, error) {
	if update.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid work log ID", e.ErrInvalidInput)
	}
	current, err := s.GetWorkLog(ctx, update.ID)
	if err != nil {
		return nil, err
	}

	merged := update.Apply(*current)
	if err := validation.WorkLog(&merged, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateWorkLog(ctx, &merged); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update work log: %w", err)
	}

	updated, err := s.repo.GetWorkLog(ctx, update.ID)
	if err != nil {
		s.logger.Error("Failed to get work log for event",
			zap.Error(err),
			zap.String("worklog_id", update.ID.String()),
		)
		return nil, err
	}
	s.producer.Produce(stamped(ctx, events.WorkLogEvent(events.WorkLogUpdated, updated)))
	return updated, nil
}

// DeleteWorkLog removes a single work log.
func (s *WorkLogService) DeleteWorkLog(ctx context.Context, id uuid.UUID) error {
	log, err := s.GetWorkLog(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteWorkLog(ctx, id); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete work log: %w", err)
	}
	s.producer.Produce(stamped(ctx, events.WorkLogEvent(events.WorkLogDeleted, log)))
	return nil
}

func (s *WorkLogService) company(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, fmt.Errorf("company %s: %w", id, err)
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

// Package controller implements the core business logic (service layer)
// for managing companies and their work logs, orchestrating repository
// operations and sending relevant events.
package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gartstein/visitlog/internal/visitlog/auth"
	e "github.com/gartstein/visitlog/internal/visitlog/errors"
	"github.com/gartstein/visitlog/internal/visitlog/events"
	"github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/gartstein/visitlog/internal/visitlog/stats"
	"github.com/gartstein/visitlog/internal/visitlog/table"
	"github.com/gartstein/visitlog/internal/visitlog/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventProducer interface {
	Produce(event events.Event)
}

// stamped records the authenticated user of ctx as the event's actor.
func stamped(ctx context.Context, event events.Event) events.Event {
	event.Actor = auth.Subject(ctx)
	return event
}

// Repository defines the storage interface for companies and work logs.
type Repository interface {
	ListCompanies(ctx context.Context) ([]models.Company, error)
	SearchCompanies(ctx context.Context, filter models.CompanyFilter) ([]models.Company, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	CreateCompany(ctx context.Context, company *models.Company) error
	UpdateCompany(ctx context.Context, update *models.CompanyUpdate) error
	DeleteCompany(ctx context.Context, id uuid.UUID) error

	ListWorkLogs(ctx context.Context) ([]models.WorkLog, error)
	ListWorkLogsByCompany(ctx context.Context, companyID uuid.UUID) ([]models.WorkLog, error)
	GetWorkLog(ctx context.Context, id uuid.UUID) (*models.WorkLog, error)
	CreateWorkLog(ctx context.Context, log *models.WorkLog) error
	UpdateWorkLog(ctx context.Context, log *models.WorkLog) error
	DeleteWorkLog(ctx context.Context, id uuid.UUID) error
	DeleteWorkLogsByCompany(ctx context.Context, companyID uuid.UUID) (int64, error)
}

// CompanyService provides methods to manage companies via repository
// operations and event production.
type CompanyService struct {
	repo     Repository
	producer EventProducer
	logger   *zap.Logger
}

// NewCompanyService constructs a CompanyService with a repository,
// an event producer, and a logger.
func NewCompanyService(repo Repository, producer EventProducer, logger *zap.Logger) *CompanyService {
	return &CompanyService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("company_service"),
	}
}

// CreateCompany validates and stores a new company and triggers an event.
func (s *CompanyService) CreateCompany(ctx context.Context, company *models.Company) (*models.Company, error) {
	if err := validation.Company(company); err != nil {
		return nil, err
	}

	company.ID = uuid.New()
	if err := s.repo.CreateCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	s.producer.Produce(stamped(ctx, events.CompanyEvent(events.CompanyCreated, company)))
	return company, nil
}

// GetCompany retrieves a Company by ID, returning an error if not found.
func (s *CompanyService) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

// ListCompanies returns the companies matching filter, ordered by name.
func (s *CompanyService) ListCompanies(ctx context.Context, filter models.CompanyFilter) ([]models.Company, error) {
	if !filter.IsEmpty() {
		return s.SearchCompanies(ctx, filter)
	}
	companies, err := s.repo.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

// SearchCompanies returns companies whose region and name partially match
// filter, ignoring case.
func (s *CompanyService) SearchCompanies(ctx context.Context, filter models.CompanyFilter) ([]models.Company, error) {
	companies, err := s.repo.SearchCompanies(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search companies: %w", err)
	}
	return companies, nil
}

// ListCompanyStats loads the companies matching filter with their visit
// statistics, ordered by state.
func (s *CompanyService) ListCompanyStats(ctx context.Context, filter models.CompanyFilter, state table.SortState) ([]models.CompanyStats, error) {
	companies, err := s.ListCompanies(ctx, filter)
	if err != nil {
		return nil, err
	}
	logs, err := s.repo.ListWorkLogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list work logs: %w", err)
	}
	return state.Apply(stats.Aggregate(companies, logs)), nil
}

// UpdateCompany applies the update to the stored company, validates the
// result, then fetches the updated version for returning and event
// production.
func (s *CompanyService) UpdateCompany(ctx context.Context, update *models.CompanyUpdate) (*models.Company, error) {
	if update.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid company ID", e.ErrInvalidInput)
	}

	current, err := s.GetCompany(ctx, update.ID)
	if err != nil {
		return nil, err
	}
	merged := update.Apply(*current)
	if err := validation.Company(&merged); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateCompany(ctx, update); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	updated, err := s.repo.GetCompany(ctx, update.ID)
	if err != nil {
		s.logger.Error("Failed to get company for event",
			zap.Error(err),
			zap.String("company_id", update.ID.String()),
		)
		return nil, err
	}
	s.producer.Produce(stamped(ctx, events.CompanyEvent(events.CompanyUpdated, updated)))
	return updated, nil
}

// DeleteCompany removes a company and all of its work logs.
//
// The store has no cascade and no transaction spans the two calls: the
// logs are deleted first, then the company. If the second step fails the
// company is left in place without its logs. That state is accepted and
// reported, not repaired.
func (s *CompanyService) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to get company for deletion: %w", err)
	}

	removed, err := s.repo.DeleteWorkLogsByCompany(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete work logs of company: %w", err)
	}

	if err := s.repo.DeleteCompany(ctx, id); err != nil {
		s.logger.Error("Company deletion failed after its work logs were removed",
			zap.Error(err),
			zap.String("company_id", id.String()),
			zap.Int64("logs_deleted", removed),
		)
		return fmt.Errorf("failed to delete company: %w", err)
	}

	event := events.CompanyEvent(events.CompanyDeleted, company)
	event.Deleted = &events.DeletedWorkLogsCount{WorkLogs: removed}
	s.producer.Produce(stamped(ctx, event))
	return nil
}

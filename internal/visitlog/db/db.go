// Package db is the data service: GORM-backed storage for companies and
// their work logs.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	rows "github.com/gartstein/visitlog/internal/visitlog/db/models"
	e "github.com/gartstein/visitlog/internal/visitlog/errors"
	"github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func NewRepository(cfg *Config) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewRepositoryFromDB(db)
}

// NewRepositoryFromDB migrates the schema on an open connection and wraps it.
func NewRepositoryFromDB(db *gorm.DB) (*Repository, error) {
	if err := db.AutoMigrate(&rows.Company{}, &rows.WorkLog{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	return r.SearchCompanies(ctx, models.CompanyFilter{})
}

// SearchCompanies returns the companies matching every non-empty filter
// field (case-insensitive substring), ordered by name.
func (r *Repository) SearchCompanies(ctx context.Context, filter models.CompanyFilter) ([]models.Company, error) {
	query := r.db.WithContext(ctx).Model(&rows.Company{})
	if filter.Region != "" {
		query = query.Where(`LOWER(region) LIKE ? ESCAPE '\'`, likePattern(filter.Region))
	}
	if filter.Name != "" {
		query = query.Where(`LOWER(company_name) LIKE ? ESCAPE '\'`, likePattern(filter.Name))
	}

	var found []rows.Company
	if err := query.Order("company_name").Find(&found).Error; err != nil {
		return nil, e.Remote("list companies", err)
	}
	companies := make([]models.Company, 0, len(found))
	for i := range found {
		companies = append(companies, *found[i].ToDomain())
	}
	return companies, nil
}

func (r *Repository) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company rows.Company
	result := r.db.WithContext(ctx).First(&company, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, e.Remote("get company", result.Error)
	}
	return company.ToDomain(), nil
}

func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	row := rows.CompanyFromDomain(company)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return e.Remote("create company", err)
	}
	company.CreatedAt = row.CreatedAt
	company.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *Repository) UpdateCompany(ctx context.Context, update *models.CompanyUpdate) error {
	changes := rows.CompanyUpdates(update)
	if len(changes) == 0 {
		_, err := r.GetCompany(ctx, update.ID)
		return err
	}
	result := r.db.WithContext(ctx).Model(&rows.Company{}).
		Where("id = ?", update.ID).
		Updates(changes)

	if result.Error != nil {
		return e.Remote("update company", result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&rows.Company{}, "id = ?", id)
	if result.Error != nil {
		return e.Remote("delete company", result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// ListWorkLogs returns every work log, most recent visit first.
func (r *Repository) ListWorkLogs(ctx context.Context) ([]models.WorkLog, error) {
	return r.findWorkLogs(ctx, "list work logs", r.db.WithContext(ctx))
}

// ListWorkLogsByCompany returns one company's work logs, most recent visit first.
func (r *Repository) ListWorkLogsByCompany(ctx context.Context, companyID uuid.UUID) ([]models.WorkLog, error) {
	return r.findWorkLogs(ctx, "list company work logs",
		r.db.WithContext(ctx).Where("company_id = ?", companyID))
}

func (r *Repository) findWorkLogs(_ context.Context, op string, query *gorm.DB) ([]models.WorkLog, error) {
	var found []rows.WorkLog
	if err := query.Order("visit_date DESC").Order("created_at DESC").Find(&found).Error; err != nil {
		return nil, e.Remote(op, err)
	}
	logs := make([]models.WorkLog, 0, len(found))
	for i := range found {
		logs = append(logs, *found[i].ToDomain())
	}
	return logs, nil
}

func (r *Repository) GetWorkLog(ctx context.Context, id uuid.UUID) (*models.WorkLog, error) {
	var log rows.WorkLog
	result := r.db.WithContext(ctx).First(&log, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, e.Remote("get work log", result.Error)
	}
	return log.ToDomain(), nil
}

func (r *Repository) CreateWorkLog(ctx context.Context, log *models.WorkLog) error {
	row := rows.WorkLogFromDomain(log)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return e.Remote("create work log", err)
	}
	log.CreatedAt = row.CreatedAt
	log.UpdatedAt = row.UpdatedAt
	return nil
}

// UpdateWorkLog overwrites every editable column of the stored log with
// the values on log.
func (r *Repository) UpdateWorkLog(ctx context.Context, log *models.WorkLog) error {
	row := rows.WorkLogFromDomain(log)
	result := r.db.WithContext(ctx).Model(&rows.WorkLog{}).
		Where("id = ?", log.ID).
		Select("*").
		Omit("id", "company_id", "created_at").
		Updates(row)

	if result.Error != nil {
		return e.Remote("update work log", result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteWorkLog(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&rows.WorkLog{}, "id = ?", id)
	if result.Error != nil {
		return e.Remote("delete work log", result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// DeleteWorkLogsByCompany removes all logs of a company and reports how
// many were removed. Removing none is not an error.
func (r *Repository) DeleteWorkLogsByCompany(ctx context.Context, companyID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&rows.WorkLog{}, "company_id = ?", companyID)
	if result.Error != nil {
		return 0, e.Remote("delete company work logs", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Exec(ctx context.Context, query string, params ...interface{}) error {
	result := r.db.WithContext(ctx).Exec(query, params...)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

func likePattern(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}

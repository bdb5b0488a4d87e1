package controller

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gartstein/visitlog/internal/visitlog/auth"
	"github.com/gartstein/visitlog/internal/visitlog/csvcodec"
	"github.com/gartstein/visitlog/internal/visitlog/dates"
	e "github.com/gartstein/visitlog/internal/visitlog/errors"
	"github.com/gartstein/visitlog/internal/visitlog/events"
	"github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/gartstein/visitlog/internal/visitlog/table"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	CSVContentType  = "text/csv; charset=utf-8"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	workbookSheet = "Companies"
)

var workbookHeader = []interface{}{
	"Name", "Region", "Address", "Contact person", "Phone", "Business type",
	"Visits", "Last visit", "Since last visit", "Color",
}

// CompanyStore is the part of CompanyService the transfers use.
type CompanyStore interface {
	ListCompanies(ctx context.Context, filter models.CompanyFilter) ([]models.Company, error)
	CreateCompany(ctx context.Context, company *models.Company) (*models.Company, error)
}

// Export is a rendered download.
type Export struct {
	Name        string
	ContentType string
	Data        []byte
}

// ImportResult summarises an import. Failed rows never stop the rows after
// them and nothing is rolled back.
type ImportResult struct {
	SuccessCount int
	ErrorCount   int
	// Skipped counts rows dropped for having no company name.
	Skipped  int
	Failures []*e.PerRecordImportError
}

// TransferService moves companies in and out of files.
type TransferService struct {
	companies CompanyStore
	stats     StatsLoader
	producer  EventProducer
	logger    *zap.Logger
	now       func() time.Time
}

func NewTransferService(companies CompanyStore, stats StatsLoader, producer EventProducer, logger *zap.Logger) *TransferService {
	return &TransferService{
		companies: companies,
		stats:     stats,
		producer:  producer,
		logger:    logger.Named("transfer_service"),
		now:       time.Now,
	}
}

// WithClock replaces the source of the current time used for file names
// and elapsed-day columns.
func (s *TransferService) WithClock(now func() time.Time) *TransferService {
	s.now = now
	return s
}

// ExportCompanies renders every company as CSV.
func (s *TransferService) ExportCompanies(ctx context.Context) (*Export, error) {
	companies, err := s.companies.ListCompanies(ctx, models.CompanyFilter{})
	if err != nil {
		return nil, err
	}
	if len(companies) == 0 {
		return nil, &e.FileFormatError{Reason: "no companies to export"}
	}
	return &Export{
		Name:        csvcodec.ExportFileName(s.now(), "csv"),
		ContentType: CSVContentType,
		Data:        []byte(csvcodec.Encode(companies)),
	}, nil
}

// ExportWorkbook renders the company table, with visit statistics and in
// the order given by state, as an XLSX workbook.
func (s *TransferService) ExportWorkbook(ctx context.Context, filter models.CompanyFilter, state table.SortState) (*Export, error) {
	rows, err := s.stats.ListCompanyStats(ctx, filter, state)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &e.FileFormatError{Reason: "no companies to export"}
	}

	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	if err := file.SetSheetName(file.GetSheetName(0), workbookSheet); err != nil {
		return nil, fmt.Errorf("failed to name worksheet: %w", err)
	}
	if err := file.SetSheetRow(workbookSheet, "A1", &workbookHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	now := s.now()
	for i := range rows {
		r := &rows[i]
		lastVisit := ""
		if r.LastVisitDate != nil {
			lastVisit = r.LastVisitDate.String()
		}
		values := []interface{}{
			r.Name, r.Region, r.Address, r.ContactPerson, r.Phone, r.BusinessType,
			r.VisitCount, lastVisit, dates.FormatElapsed(r, now), r.Color.Label(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := file.SetSheetRow(workbookSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return &Export{
		Name:        csvcodec.ExportFileName(now, "xlsx"),
		ContentType: XLSXContentType,
		Data:        buf.Bytes(),
	}, nil
}

// ImportCompanies creates one company per accepted row of a CSV file, in
// file order. The file is rejected as a whole only when its name or shape
// is wrong. Each row failure is recorded and the import moves on.
func (s *TransferService) ImportCompanies(ctx context.Context, filename string, data []byte) (*ImportResult, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return nil, &e.FileFormatError{Name: filename, Reason: "only .csv files can be imported"}
	}

	parsed := csvcodec.Parse(strings.TrimPrefix(string(data), csvcodec.BOM))
	if parsed.DataLines == 0 {
		return nil, &e.FileFormatError{Name: filename, Reason: "file has no data rows"}
	}

	result := &ImportResult{Skipped: parsed.Skipped}
	for i := range parsed.Records {
		rec := &parsed.Records[i]
		company := rec.Company()
		if _, err := s.companies.CreateCompany(ctx, &company); err != nil {
			result.ErrorCount++
			result.Failures = append(result.Failures, &e.PerRecordImportError{
				Line: rec.Line,
				Name: rec.Name,
				Err:  err,
			})
			s.logger.Warn("Failed to import company",
				zap.Error(err),
				zap.Int("line", rec.Line),
				zap.String("name", rec.Name),
			)
			continue
		}
		result.SuccessCount++
	}

	s.logger.Info("Companies imported",
		zap.String("file", filename),
		zap.String("user", auth.Subject(ctx)),
		zap.Int("success", result.SuccessCount),
		zap.Int("errors", result.ErrorCount),
		zap.Int("skipped", result.Skipped),
	)
	s.producer.Produce(stamped(ctx, events.Event{
		Type: events.CompaniesImported,
		Import: &events.ImportSummary{
			FileName:     filename,
			SuccessCount: result.SuccessCount,
			ErrorCount:   result.ErrorCount,
		},
	}))
	return result, nil
}

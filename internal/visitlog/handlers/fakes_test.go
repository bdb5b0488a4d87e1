package handlers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gartstein/visitlog/internal/visitlog/controller"
	e "github.com/gartstein/visitlog/internal/visitlog/errors"
	"github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/gartstein/visitlog/internal/visitlog/table"
	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
)

// mockCompanyController is a function-field implementation of CompanyController.
type mockCompanyController struct {
	createFunc func(ctx context.Context, company *models.Company) (*models.Company, error)
	getFunc    func(ctx context.Context, id uuid.UUID) (*models.Company, error)
	updateFunc func(ctx context.Context, update *models.CompanyUpdate) (*models.Company, error)
	deleteFunc func(ctx context.Context, id uuid.UUID) error
	statsFunc  func(ctx context.Context, filter models.CompanyFilter, state table.SortState) ([]models.CompanyStats, error)
}

func (m *mockCompanyController) CreateCompany(ctx context.Context, company *models.Company) (*models.Company, error) {
	return m.createFunc(ctx, company)
}

func (m *mockCompanyController) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	return m.getFunc(ctx, id)
}

func (m *mockCompanyController) UpdateCompany(ctx context.Context, update *models.CompanyUpdate) (*models.Company, error) {
	return m.updateFunc(ctx, update)
}

func (m *mockCompanyController) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockCompanyController) ListCompanyStats(ctx context.Context, filter models.CompanyFilter, state table.SortState) ([]models.CompanyStats, error) {
	return m.statsFunc(ctx, filter, state)
}

type mockWorkLogController struct {
	listFunc   func(ctx context.Context, companyID uuid.UUID) ([]models.WorkLog, error)
	getFunc    func(ctx context.Context, id uuid.UUID) (*models.WorkLog, error)
	createFunc func(ctx context.Context, log *models.WorkLog) (*models.WorkLog, error)
	updateFunc func(ctx context.Context, update *models.WorkLogUpdate) (*models.WorkLog, error)
	deleteFunc func(ctx context.Context, id uuid.UUID) error
}

func (m *mockWorkLogController) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.WorkLog, error) {
	return m.listFunc(ctx, companyID)
}

func (m *mockWorkLogController) GetWorkLog(ctx context.Context, id uuid.UUID) (*models.WorkLog, error) {
	return m.getFunc(ctx, id)
}

func (m *mockWorkLogController) CreateWorkLog(ctx context.Context, log *models.WorkLog) (*models.WorkLog, error) {
	return m.createFunc(ctx, log)
}

func (m *mockWorkLogController) UpdateWorkLog(ctx context.Context, update *models.WorkLogUpdate) (*models.WorkLog, error) {
	return m.updateFunc(ctx, update)
}

func (m *mockWorkLogController) DeleteWorkLog(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

type mockTransferController struct {
	exportFunc   func(ctx context.Context) (*controller.Export, error)
	workbookFunc func(ctx context.Context, filter models.CompanyFilter, state table.SortState) (*controller.Export, error)
	importFunc   func(ctx context.Context, filename string, data []byte) (*controller.ImportResult, error)
}

func (m *mockTransferController) ExportCompanies(ctx context.Context) (*controller.Export, error) {
	return m.exportFunc(ctx)
}

func (m *mockTransferController) ExportWorkbook(ctx context.Context, filter models.CompanyFilter, state table.SortState) (*controller.Export, error) {
	return m.workbookFunc(ctx, filter, state)
}

func (m *mockTransferController) ImportCompanies(ctx context.Context, filename string, data []byte) (*controller.ImportResult, error) {
	return m.importFunc(ctx, filename, data)
}

// memoryDrafts keeps touched drafts in a map.
type memoryDrafts struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]models.WorkLogDraft
}

func newMemoryDrafts() *memoryDrafts {
	return &memoryDrafts{drafts: make(map[uuid.UUID]models.WorkLogDraft)}
}

func (m *memoryDrafts) Touch(draft models.WorkLogDraft) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[draft.CompanyID] = draft
}

func (m *memoryDrafts) Restore(_ context.Context, companyID uuid.UUID) (*models.WorkLogDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[companyID]
	if !ok {
		return nil, e.ErrNotFound
	}
	return &d, nil
}

func (m *memoryDrafts) Discard(_ context.Context, companyID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, companyID)
	return nil
}

type fixture struct {
	companies *mockCompanyController
	views     *controller.CompanyListViews
	worklogs  *mockWorkLogController
	transfer  *mockTransferController
	drafts    *memoryDrafts
	handler   *Handler
}

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		companies: &mockCompanyController{},
		worklogs:  &mockWorkLogController{},
		transfer:  &mockTransferController{},
		drafts:    newMemoryDrafts(),
	}
	f.views = controller.NewCompanyListViews(f.companies)
	f.handler = NewHandler(f.companies, f.views, f.worklogs, f.transfer, f.drafts, zaptest.NewLogger(t)).
		WithClock(func() time.Time { return testNow })
	return f
}

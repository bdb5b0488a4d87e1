package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gartstein/visitlog/internal/visitlog/auth"
	"github.com/gartstein/visitlog/internal/visitlog/controller"
	"github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/gartstein/visitlog/internal/visitlog/table"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ VisitLogServiceServer = (*Handler)(nil)

// Handler provides the VisitLogService methods, mapping requests to the
// controllers.
type Handler struct {
	companies CompanyController
	views     ListViewController
	worklogs  WorkLogController
	transfer  TransferController
	drafts    DraftController
	logger    *zap.Logger
	now       func() time.Time
}

// NewHandler constructs a new Handler with the given services and logger.
func NewHandler(
	companies CompanyController,
	views ListViewController,
	worklogs WorkLogController,
	transfer TransferController,
	drafts DraftController,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		companies: companies,
		views:     views,
		worklogs:  worklogs,
		transfer:  transfer,
		drafts:    drafts,
		logger:    logger.Named("grpc_handler"),
		now:       time.Now,
	}
}

// WithClock replaces the source of the current time used for elapsed days.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// ListCompanies returns the company table: companies filtered by region
// and name, with visit statistics, ordered by sort_key and sort_direction.
func (h *Handler) ListCompanies(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	filter, state, err := tableRequest(req)
	if err != nil {
		return nil, h.mapServiceError(err)
	}

	rows, err := h.companies.ListCompanyStats(ctx, filter, state)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return h.tableResponse(rows, state), nil
}

// SortCompanies reloads the caller's company table for region and name and
// sorts it by sort_key. Selecting the current key again flips the
// direction; another key starts ascending.
func (h *Handler) SortCompanies(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newFieldReader(req, "request")
	filter := models.CompanyFilter{
		Region: r.str("region"),
		Name:   r.str("name"),
	}
	keyText := r.str("sort_key")
	if err := r.err(); err != nil {
		return nil, h.mapServiceError(err)
	}
	key, err := table.ParseSortKey(keyText)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	if key == table.KeyNone {
		return nil, status.Error(codes.InvalidArgument, "sort_key required")
	}

	viewer := auth.Subject(ctx)
	rows, state, err := h.views.Sort(ctx, viewer, filter, key)
	if err != nil {
		h.logger.Error("Sort companies failed", zap.Error(err), zap.String("user", viewer))
		return nil, h.mapServiceError(err)
	}
	return h.tableResponse(rows, state), nil
}

func (h *Handler) tableResponse(rows []models.CompanyStats, state table.SortState) *structpb.Struct {
	now := h.now()
	values := make([]*structpb.Value, 0, len(rows))
	for i := range rows {
		values = append(values, statsToValue(&rows[i], now))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"companies":      listValue(values),
		"sort_key":       structpb.NewStringValue(string(state.Key)),
		"sort_direction": structpb.NewStringValue(string(state.Direction)),
	}}
}

// GetCompany fetches a Company by ID, returning an error if not found.
func (h *Handler) GetCompany(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requestID(req, "id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid company ID")
	}

	company, err := h.companies.GetCompany(ctx, id)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return companyResponse(company), nil
}

// CreateCompany creates a new Company from the "company" object.
func (h *Handler) CreateCompany(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	body, err := nested(req, "company")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "company data required")
	}
	company, err := structToCompany(body)
	if err != nil {
		return nil, h.mapServiceError(err)
	}

	created, err := h.companies.CreateCompany(ctx, company)
	if err != nil {
		h.logger.Error("Create company failed", zap.Error(err))
		return nil, h.mapServiceError(err)
	}
	return companyResponse(created), nil
}

// UpdateCompany applies the fields present in "company" to the company "id".
func (h *Handler) UpdateCompany(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requestID(req, "id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid company ID")
	}
	body, err := nested(req, "company")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "update data required")
	}
	update, err := structToCompanyUpdate(body, id)
	if err != nil {
		return nil, h.mapServiceError(err)
	}

	updated, err := h.companies.UpdateCompany(ctx, update)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return companyResponse(updated), nil
}

// DeleteCompany removes a Company and its work logs.
func (h *Handler) DeleteCompany(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requestID(req, "id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid company ID")
	}
	if err := h.companies.DeleteCompany(ctx, id); err != nil {
		return nil, h.mapServiceError(err)
	}
	return &structpb.Struct{}, nil
}

// ListWorkLogs returns the work logs of "company_id", newest visit first.
func (h *Handler) ListWorkLogs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	companyID, err := requestID(req, "company_id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid company ID")
	}

	logs, err := h.worklogs.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	values := make([]*structpb.Value, 0, len(logs))
	for i := range logs {
		values = append(values, workLogToValue(&logs[i]))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"work_logs": listValue(values),
	}}, nil
}

func (h *Handler) GetWorkLog(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requestID(req, "id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid work log ID")
	}
	log, err := h.worklogs.GetWorkLog(ctx, id)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return workLogResponse(log), nil
}

func (h *Handler) CreateWorkLog(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	companyID, err := requestID(req, "company_id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid company ID")
	}
	body, err := nested(req, "work_log")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "work log data required")
	}
	log, err := structToWorkLog(body, companyID)
	if err != nil {
		return nil, h.mapServiceError(err)
	}

	created, err := h.worklogs.CreateWorkLog(ctx, log)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return workLogResponse(created), nil
}

func (h *Handler) UpdateWorkLog(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requestID(req, "id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid work log ID")
	}
	body, err := nested(req, "work_log")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "update data required")
	}
	update, err := structToWorkLogUpdate(body, id)
	if err != nil {
		return nil, h.mapServiceError(err)
	}

	updated, err := h.worklogs.UpdateWorkLog(ctx, update)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return workLogResponse(updated), nil
}

func (h *Handler) DeleteWorkLog(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requestID(req, "id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid work log ID")
	}
	if err := h.worklogs.DeleteWorkLog(ctx, id); err != nil {
		return nil, h.mapServiceError(err)
	}
	return &structpb.Struct{}, nil
}

// ExportCompanies returns every company as a CSV download. The file name
// travels as a string Value in the body's extensions.
func (h *Handler) ExportCompanies(ctx context.Context, _ *structpb.Struct) (*httpbody.HttpBody, error) {
	export, err := h.transfer.ExportCompanies(ctx)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return exportBody(export)
}

// ExportWorkbook returns the company table as an XLSX download, filtered
// and ordered like ListCompanies.
func (h *Handler) ExportWorkbook(ctx context.Context, req *structpb.Struct) (*httpbody.HttpBody, error) {
	filter, state, err := tableRequest(req)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	export, err := h.transfer.ExportWorkbook(ctx, filter, state)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return exportBody(export)
}

// ImportCompanies creates companies from the CSV text in "content".
// An import in which every row failed is reported as an error.
func (h *Handler) ImportCompanies(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newFieldReader(req, "import")
	name, content := r.str("file_name"), r.str("content")
	if err := r.err(); err != nil {
		return nil, h.mapServiceError(err)
	}

	res, err := h.transfer.ImportCompanies(ctx, name, []byte(content))
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	if res.SuccessCount == 0 && res.ErrorCount > 0 {
		return nil, status.Errorf(codes.InvalidArgument,
			"import failed: %d rows rejected, first: %v", res.ErrorCount, res.Failures[0])
	}
	return importResultToStruct(res), nil
}

// SaveDraft schedules a debounced save of the "draft" object for
// "company_id".
func (h *Handler) SaveDraft(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	companyID, err := requestID(req, "company_id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid company ID")
	}
	body, err := nested(req, "draft")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "draft data required")
	}
	draft, err := structToDraft(body, companyID)
	if err != nil {
		return nil, h.mapServiceError(err)
	}

	h.drafts.Touch(draft)
	return mustStruct(map[string]interface{}{"pending": true}), nil
}

func (h *Handler) GetDraft(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	companyID, err := requestID(req, "company_id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid company ID")
	}
	draft, err := h.drafts.Restore(ctx, companyID)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	body, err := draftToStruct(draft)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"draft": structpb.NewStructValue(body),
	}}, nil
}

func (h *Handler) DeleteDraft(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	companyID, err := requestID(req, "company_id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid company ID")
	}
	if err := h.drafts.Discard(ctx, companyID); err != nil {
		return nil, h.mapServiceError(err)
	}
	return &structpb.Struct{}, nil
}

func tableRequest(req *structpb.Struct) (models.CompanyFilter, table.SortState, error) {
	r := newFieldReader(req, "request")
	filter := models.CompanyFilter{
		Region: r.str("region"),
		Name:   r.str("name"),
	}
	keyText, dirText := r.str("sort_key"), r.str("sort_direction")
	if err := r.err(); err != nil {
		return filter, table.SortState{}, err
	}

	key, err := table.ParseSortKey(keyText)
	if err != nil {
		return filter, table.SortState{}, err
	}
	dir, err := table.ParseDirection(dirText)
	if err != nil {
		return filter, table.SortState{}, err
	}
	return filter, table.SortState{Key: key, Direction: dir}, nil
}

func companyResponse(c *models.Company) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"company": companyToValue(c),
	}}
}

func workLogResponse(w *models.WorkLog) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"work_log": workLogToValue(w),
	}}
}

func exportBody(export *controller.Export) (*httpbody.HttpBody, error) {
	name, err := anypb.New(structpb.NewStringValue(export.Name))
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("internal server error: %v", err))
	}
	return &httpbody.HttpBody{
		ContentType: export.ContentType,
		Data:        export.Data,
		Extensions:  []*anypb.Any{name},
	}, nil
}

// exportName recovers the file name stored by exportBody.
func exportName(body *httpbody.HttpBody) string {
	for _, ext := range body.GetExtensions() {
		var v structpb.Value
		if err := ext.UnmarshalTo(&v); err == nil {
			return v.GetStringValue()
		}
	}
	return ""
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gartstein/visitlog/internal/visitlog/controller"
	"github.com/gartstein/visitlog/internal/visitlog/dates"
	e "github.com/gartstein/visitlog/internal/visitlog/errors"
	"github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// fieldReader pulls typed values out of a request Struct and collects
// every mistyped field into one ValidationError.
type fieldReader struct {
	fields map[string]*structpb.Value
	verr   *e.ValidationError
}

func newFieldReader(s *structpb.Struct, entity string) *fieldReader {
	return &fieldReader{
		fields: s.GetFields(),
		verr:   &e.ValidationError{Entity: entity},
	}
}

// has reports whether key is present, including an explicit null.
func (r *fieldReader) has(key string) bool {
	_, ok := r.fields[key]
	return ok
}

func (r *fieldReader) isNull(key string) bool {
	v, ok := r.fields[key]
	if !ok {
		return true
	}
	_, null := v.GetKind().(*structpb.Value_NullValue)
	return null
}

func (r *fieldReader) str(key string) string {
	if p := r.strPtr(key); p != nil {
		return *p
	}
	return ""
}

// strPtr returns nil when key is absent. Null reads as "".
func (r *fieldReader) strPtr(key string) *string {
	v, ok := r.fields[key]
	if !ok {
		return nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		s := k.StringValue
		return &s
	case *structpb.Value_NullValue:
		s := ""
		return &s
	}
	r.verr.Add(key, "must be a string")
	return nil
}

func (r *fieldReader) date(key string) *models.Date {
	s := r.str(key)
	if s == "" {
		return nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		r.verr.Add(key, "expected YYYY-MM-DD")
		return nil
	}
	return &d
}

func (r *fieldReader) number(key string) *float64 {
	v, ok := r.fields[key]
	if !ok {
		return nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := k.NumberValue
		return &n
	case *structpb.Value_NullValue:
		return nil
	}
	r.verr.Add(key, "must be a number")
	return nil
}

func (r *fieldReader) id(key string) uuid.UUID {
	s := r.str(key)
	id, err := uuid.Parse(s)
	if err != nil {
		r.verr.Add(key, "invalid ID")
		return uuid.Nil
	}
	return id
}

func (r *fieldReader) err() error {
	return r.verr.OrNil()
}

// requestID reads a required UUID field from a request.
func requestID(req *structpb.Struct, key string) (uuid.UUID, error) {
	r := newFieldReader(req, "request")
	id := r.id(key)
	return id, r.err()
}

func nested(req *structpb.Struct, key string) (*structpb.Struct, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s required", e.ErrInvalidInput, key)
	}
	s := v.GetStructValue()
	if s == nil {
		return nil, fmt.Errorf("%w: %s must be an object", e.ErrInvalidInput, key)
	}
	return s, nil
}

func structToCompany(s *structpb.Struct) (*models.Company, error) {
	r := newFieldReader(s, "company")
	c := &models.Company{
		Name:          r.str("name"),
		Region:        r.str("region"),
		Address:       r.str("address"),
		ContactPerson: r.str("contact_person"),
		Phone:         r.str("phone"),
		Email:         r.str("email"),
		BusinessType:  r.str("business_type"),
		Notes:         r.str("notes"),
		Color:         models.Color(r.str("color")),
	}
	return c, r.err()
}

func structToCompanyUpdate(s *structpb.Struct, id uuid.UUID) (*models.CompanyUpdate, error) {
	r := newFieldReader(s, "company")
	u := &models.CompanyUpdate{
		ID:            id,
		Name:          r.strPtr("name"),
		Region:        r.strPtr("region"),
		Address:       r.strPtr("address"),
		ContactPerson: r.strPtr("contact_person"),
		Phone:         r.strPtr("phone"),
		Email:         r.strPtr("email"),
		BusinessType:  r.strPtr("business_type"),
		Notes:         r.strPtr("notes"),
	}
	if c := r.strPtr("color"); c != nil {
		color := models.Color(*c)
		u.Color = &color
	}
	return u, r.err()
}

func structToWorkLog(s *structpb.Struct, companyID uuid.UUID) (*models.WorkLog, error) {
	r := newFieldReader(s, "work log")
	w := &models.WorkLog{
		CompanyID:          companyID,
		VisitTime:          r.str("visit_time"),
		VisitPurpose:       r.str("visit_purpose"),
		MeetingPerson:      r.str("meeting_person"),
		MeetingPersonTitle: r.str("meeting_person_title"),
		DiscussionContent:  r.str("discussion_content"),
		ProposedItems:      r.str("proposed_items"),
		EstimatedAmount:    r.number("estimated_amount"),
		CustomerResponse:   r.str("customer_response"),
		NextAction:         r.str("next_action"),
		FollowUpDate:       r.date("follow_up_date"),
		AdditionalNotes:    r.str("additional_notes"),
	}
	if d := r.date("visit_date"); d != nil {
		w.VisitDate = *d
	}
	return w, r.err()
}

func structToWorkLogUpdate(s *structpb.Struct, id uuid.UUID) (*models.WorkLogUpdate, error) {
	r := newFieldReader(s, "work log")
	u := &models.WorkLogUpdate{
		ID:                 id,
		VisitDate:          r.date("visit_date"),
		VisitTime:          r.strPtr("visit_time"),
		VisitPurpose:       r.strPtr("visit_purpose"),
		MeetingPerson:      r.strPtr("meeting_person"),
		MeetingPersonTitle: r.strPtr("meeting_person_title"),
		DiscussionContent:  r.strPtr("discussion_content"),
		ProposedItems:      r.strPtr("proposed_items"),
		EstimatedAmount:    r.number("estimated_amount"),
		CustomerResponse:   r.strPtr("customer_response"),
		NextAction:         r.strPtr("next_action"),
		AdditionalNotes:    r.strPtr("additional_notes"),
	}
	if r.has("visit_date") && u.VisitDate == nil {
		// An empty visit date must still fail validation.
		empty := models.Date{}
		u.VisitDate = &empty
	}
	if r.has("estimated_amount") && r.isNull("estimated_amount") {
		u.ClearEstimatedAmount = true
	}
	if r.has("follow_up_date") {
		if r.str("follow_up_date") == "" {
			u.ClearFollowUp = true
		} else {
			u.FollowUpDate = r.date("follow_up_date")
		}
	}
	return u, r.err()
}

func structToDraft(s *structpb.Struct, companyID uuid.UUID) (models.WorkLogDraft, error) {
	var draft models.WorkLogDraft
	data, err := s.MarshalJSON()
	if err != nil {
		return draft, fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
	}
	if err := json.Unmarshal(data, &draft); err != nil {
		return draft, fmt.Errorf("%w: invalid draft: %v", e.ErrInvalidInput, err)
	}
	draft.CompanyID = companyID
	draft.SavedAt = time.Time{}
	return draft, nil
}

func draftToStruct(d *models.WorkLogDraft) (*structpb.Struct, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := s.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return s, nil
}

func companyFields(c *models.Company) map[string]interface{} {
	return map[string]interface{}{
		"id":             c.ID.String(),
		"name":           c.Name,
		"region":         c.Region,
		"address":        c.Address,
		"contact_person": c.ContactPerson,
		"phone":          c.Phone,
		"email":          c.Email,
		"business_type":  c.BusinessType,
		"notes":          c.Notes,
		"color":          string(c.Color),
		"color_label":    c.Color.Label(),
		"created_at":     formatTime(c.CreatedAt),
		"updated_at":     formatTime(c.UpdatedAt),
	}
}

func companyToValue(c *models.Company) *structpb.Value {
	return mustValue(companyFields(c))
}

func statsToValue(row *models.CompanyStats, now time.Time) *structpb.Value {
	f := companyFields(&row.Company)
	f["visit_count"] = row.VisitCount
	f["last_visit_date"] = nil
	if row.LastVisitDate != nil {
		f["last_visit_date"] = row.LastVisitDate.String()
	}
	f["days_since_last_visit"] = nil
	if days := dates.DaysSince(row.LastVisitDate, now); days != nil && !row.IsGray() {
		f["days_since_last_visit"] = *days
	}
	f["elapsed"] = dates.FormatElapsed(row, now)
	return mustValue(f)
}

func workLogToValue(w *models.WorkLog) *structpb.Value {
	f := map[string]interface{}{
		"id":                   w.ID.String(),
		"company_id":           w.CompanyID.String(),
		"visit_date":           w.VisitDate.String(),
		"visit_time":           w.VisitTime,
		"visit_purpose":        w.VisitPurpose,
		"meeting_person":       w.MeetingPerson,
		"meeting_person_title": w.MeetingPersonTitle,
		"discussion_content":   w.DiscussionContent,
		"proposed_items":       w.ProposedItems,
		"estimated_amount":     nil,
		"customer_response":    w.CustomerResponse,
		"next_action":          w.NextAction,
		"follow_up_date":       nil,
		"additional_notes":     w.AdditionalNotes,
		"created_at":           formatTime(w.CreatedAt),
		"updated_at":           formatTime(w.UpdatedAt),
	}
	if w.EstimatedAmount != nil {
		f["estimated_amount"] = *w.EstimatedAmount
	}
	if w.FollowUpDate != nil {
		f["follow_up_date"] = w.FollowUpDate.String()
	}
	return mustValue(f)
}

func importResultToStruct(res *controller.ImportResult) *structpb.Struct {
	failures := make([]interface{}, 0, len(res.Failures))
	for _, f := range res.Failures {
		failures = append(failures, map[string]interface{}{
			"line":  f.Line,
			"name":  f.Name,
			"error": f.Err.Error(),
		})
	}
	return mustStruct(map[string]interface{}{
		"success_count": res.SuccessCount,
		"error_count":   res.ErrorCount,
		"skipped":       res.Skipped,
		"failures":      failures,
	})
}

func listValue(values []*structpb.Value) *structpb.Value {
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func formatTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// mustValue converts values built from strings, numbers, nil, maps and
// slices of those, which structpb always accepts.
func mustValue(v interface{}) *structpb.Value {
	val, err := structpb.NewValue(v)
	if err != nil {
		panic(fmt.Sprintf("handlers: unconvertible value: %v", err))
	}
	return val
}

func mustStruct(m map[string]interface{}) *structpb.Struct {
	return mustValue(m).GetStructValue()
}

// mapServiceError maps domain or repository errors to appropriate gRPC status codes.
func (h *Handler) mapServiceError(err error) error {
	switch {
	case errors.Is(err, e.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, e.ErrInvalidInput), errors.Is(err, e.ErrFileFormat):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, e.ErrRemote):
		h.logger.Error("Remote operation failed", zap.Error(err))
		return status.Error(codes.Unavailable, err.Error())
	default:
		h.logger.Error("Internal server error", zap.Error(err))
		return status.Error(codes.Internal, fmt.Sprintf("internal server error: %v", err))
	}
}

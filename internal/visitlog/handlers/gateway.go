package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// maxUploadSize bounds the CSV accepted by the import route.
const maxUploadSize = 10 << 20

type route struct {
	method  string
	pattern string
	// body names the request field the JSON body is stored under; "" means
	// the route takes no body and "*" merges the body into the request.
	body string
	call func(context.Context, *structpb.Struct) (proto.Message, error)
}

// RegisterRoutes maps the REST API onto the VisitLogService methods of h.
// Path parameters and query parameters become string fields of the request.
func (h *Handler) RegisterRoutes(mux *runtime.ServeMux) error {
	routes := []route{
		{http.MethodGet, "/v1/companies", "", adapt(h.ListCompanies)},
		{http.MethodPost, "/v1/companies:sort", "*", adapt(h.SortCompanies)},
		{http.MethodPost, "/v1/companies", "company", adapt(h.CreateCompany)},
		{http.MethodGet, "/v1/companies/{id}", "", adapt(h.GetCompany)},
		{http.MethodPatch, "/v1/companies/{id}", "company", adapt(h.UpdateCompany)},
		{http.MethodDelete, "/v1/companies/{id}", "", adapt(h.DeleteCompany)},

		{http.MethodGet, "/v1/companies/{company_id}/worklogs", "", adapt(h.ListWorkLogs)},
		{http.MethodPost, "/v1/companies/{company_id}/worklogs", "work_log", adapt(h.CreateWorkLog)},
		{http.MethodGet, "/v1/worklogs/{id}", "", adapt(h.GetWorkLog)},
		{http.MethodPatch, "/v1/worklogs/{id}", "work_log", adapt(h.UpdateWorkLog)},
		{http.MethodDelete, "/v1/worklogs/{id}", "", adapt(h.DeleteWorkLog)},

		{http.MethodGet, "/v1/companies/{company_id}/draft", "", adapt(h.GetDraft)},
		{http.MethodPut, "/v1/companies/{company_id}/draft", "draft", adapt(h.SaveDraft)},
		{http.MethodDelete, "/v1/companies/{company_id}/draft", "", adapt(h.DeleteDraft)},

		{http.MethodGet, "/v1/export/companies.csv", "", adapt(h.ExportCompanies)},
		{http.MethodGet, "/v1/export/companies.xlsx", "", adapt(h.ExportWorkbook)},
	}

	for _, rt := range routes {
		if err := mux.HandlePath(rt.method, rt.pattern, h.serve(mux, rt)); err != nil {
			return fmt.Errorf("failed to register %s %s: %w", rt.method, rt.pattern, err)
		}
	}
	return mux.HandlePath(http.MethodPost, "/v1/import/companies", h.serveImport(mux))
}

func adapt[Resp proto.Message](fn func(context.Context, *structpb.Struct) (Resp, error)) func(context.Context, *structpb.Struct) (proto.Message, error) {
	return func(ctx context.Context, req *structpb.Struct) (proto.Message, error) {
		resp, err := fn(ctx, req)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}
}

func (h *Handler) serve(mux *runtime.ServeMux, rt route) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
		inbound, outbound := runtime.MarshalerForRequest(mux, r)

		req := &structpb.Struct{Fields: map[string]*structpb.Value{}}
		for key, values := range r.URL.Query() {
			if len(values) > 0 {
				req.Fields[key] = structpb.NewStringValue(values[0])
			}
		}

		if rt.body != "" {
			body := &structpb.Struct{}
			if err := inbound.NewDecoder(r.Body).Decode(body); err != nil && !errors.Is(err, io.EOF) {
				runtime.HTTPError(r.Context(), mux, outbound, w, r,
					status.Errorf(codes.InvalidArgument, "invalid request body: %v", err))
				return
			}
			if rt.body == "*" {
				for key, value := range body.GetFields() {
					req.Fields[key] = value
				}
			} else {
				req.Fields[rt.body] = structpb.NewStructValue(body)
			}
		}

		// Path parameters win over query and body fields.
		for key, value := range pathParams {
			req.Fields[key] = structpb.NewStringValue(value)
		}

		resp, err := rt.call(r.Context(), req)
		if err != nil {
			runtime.HTTPError(r.Context(), mux, outbound, w, r, err)
			return
		}
		h.write(w, outbound, resp)
	}
}

func (h *Handler) serveImport(mux *runtime.ServeMux) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		_, outbound := runtime.MarshalerForRequest(mux, r)

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		file, header, err := r.FormFile("file")
		if err != nil {
			runtime.HTTPError(r.Context(), mux, outbound, w, r,
				status.Error(codes.InvalidArgument, "multipart field \"file\" required"))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			runtime.HTTPError(r.Context(), mux, outbound, w, r,
				status.Errorf(codes.InvalidArgument, "failed to read upload: %v", err))
			return
		}

		req := &structpb.Struct{Fields: map[string]*structpb.Value{
			"file_name": structpb.NewStringValue(header.Filename),
			"content":   structpb.NewStringValue(string(data)),
		}}
		resp, err := h.ImportCompanies(r.Context(), req)
		if err != nil {
			runtime.HTTPError(r.Context(), mux, outbound, w, r, err)
			return
		}
		h.write(w, outbound, resp)
	}
}

func (h *Handler) write(w http.ResponseWriter, marshaler runtime.Marshaler, resp proto.Message) {
	if body, ok := resp.(*httpbody.HttpBody); ok {
		w.Header().Set("Content-Type", body.GetContentType())
		if name := exportName(body); name != "" {
			w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
		}
		if _, err := w.Write(body.GetData()); err != nil {
			h.logger.Warn("Failed to write response", zap.Error(err))
		}
		return
	}

	data, err := marshaler.Marshal(resp)
	if err != nil {
		h.logger.Error("Failed to marshal response", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", marshaler.ContentType(resp))
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("Failed to write response", zap.Error(err))
	}
}

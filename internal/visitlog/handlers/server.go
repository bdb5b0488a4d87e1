// Package handlers provides gRPC and HTTP server implementations for
// serving the VisitLogService, bridging the transport layer and business
// logic and translating between request Structs and domain models.
package handlers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gartstein/visitlog/internal/visitlog/auth"
	"github.com/gartstein/visitlog/internal/visitlog/controller"
	"github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/gartstein/visitlog/internal/visitlog/table"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// CompanyController defines the company operations the handlers invoke.
type CompanyController interface {
	CreateCompany(ctx context.Context, company *models.Company) (*models.Company, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	UpdateCompany(ctx context.Context, update *models.CompanyUpdate) (*models.Company, error)
	DeleteCompany(ctx context.Context, id uuid.UUID) error
	ListCompanyStats(ctx context.Context, filter models.CompanyFilter, state table.SortState) ([]models.CompanyStats, error)
}

// ListViewController keeps each viewer's company table and its sort order.
type ListViewController interface {
	Sort(ctx context.Context, viewer string, filter models.CompanyFilter, key table.SortKey) ([]models.CompanyStats, table.SortState, error)
}

// WorkLogController defines the work log operations the handlers invoke.
type WorkLogController interface {
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.WorkLog, error)
	GetWorkLog(ctx context.Context, id uuid.UUID) (*models.WorkLog, error)
	CreateWorkLog(ctx context.Context, log *models.WorkLog) (*models.WorkLog, error)
	UpdateWorkLog(ctx context.Context, update *models.WorkLogUpdate) (*models.WorkLog, error)
	DeleteWorkLog(ctx context.Context, id uuid.UUID) error
}

type TransferController interface {
	ExportCompanies(ctx context.Context) (*controller.Export, error)
	ExportWorkbook(ctx context.Context, filter models.CompanyFilter, state table.SortState) (*controller.Export, error)
	ImportCompanies(ctx context.Context, filename string, data []byte) (*controller.ImportResult, error)
}

type DraftController interface {
	Touch(draft models.WorkLogDraft)
	Restore(ctx context.Context, companyID uuid.UUID) (*models.WorkLogDraft, error)
	Discard(ctx context.Context, companyID uuid.UUID) error
}

// Server holds references to both a gRPC server and an HTTP server.
type Server struct {
	grpcServer   *grpc.Server
	httpServer   *http.Server
	health       *health.Server
	logger       *zap.Logger
	grpcEndpoint string
	httpEndpoint string
}

// NewServer constructs a Server with separate endpoints for gRPC and HTTP.
func NewServer(
	grpcPort int,
	httpPort int,
	logger *zap.Logger,
	grpcOpts ...grpc.ServerOption,
) *Server {
	s := &Server{
		grpcServer:   grpc.NewServer(grpcOpts...),
		httpServer:   &http.Server{ReadHeaderTimeout: 10 * time.Second},
		health:       health.NewServer(),
		logger:       logger,
		grpcEndpoint: fmt.Sprintf(":%d", grpcPort),
		httpEndpoint: fmt.Sprintf(":%d", httpPort),
	}
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	return s
}

// RegisterGRPCHandler registers the gRPC handler for the VisitLogService
// and marks it as serving.
func (s *Server) RegisterGRPCHandler(h *Handler) {
	RegisterVisitLogServiceServer(s.grpcServer, h)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
}

// RegisterHTTPGateway maps the REST routes onto h and protects mutating
// requests with the JWT middleware.
func (s *Server) RegisterHTTPGateway(h *Handler, jwtSecret string) error {
	mux := runtime.NewServeMux()
	if err := h.RegisterRoutes(mux); err != nil {
		return err
	}

	// Wrap the mux with auth middleware
	authMiddleware := auth.HTTPMiddleware(mux, jwtSecret)

	s.httpServer.Handler = authMiddleware
	s.httpServer.Addr = s.httpEndpoint
	return nil
}

// Start runs the gRPC and HTTP servers concurrently, returning on the first error.
func (s *Server) Start() error {
	var wg sync.WaitGroup
	wg.Add(2)
	errChan := make(chan error, 2)

	// Start gRPC Server
	go func() {
		defer wg.Done()
		s.logger.Info("Starting gRPC server", zap.String("endpoint", s.grpcEndpoint))
		lis, err := net.Listen("tcp", s.grpcEndpoint)
		if err != nil {
			errChan <- fmt.Errorf("gRPC listen error: %w", err)
			return
		}
		if err := s.grpcServer.Serve(lis); err != nil {
			errChan <- fmt.Errorf("gRPC serve error: %w", err)
		}
	}()

	// Start HTTP Server
	go func() {
		defer wg.Done()
		s.logger.Info("Starting HTTP server", zap.String("endpoint", s.httpEndpoint))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP serve error: %w", err)
		}
	}()

	go func() {
		wg.Wait()
		close(errChan)
	}()

	for err := range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}

// Stop gracefully shuts down both gRPC and HTTP servers.
func (s *Server) Stop() {
	s.logger.Info("Shutting down servers...")
	s.health.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.grpcServer.GracefulStop()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	s.logger.Info("Servers stopped")
}

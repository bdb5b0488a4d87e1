package handlers

import (
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestServer_RegisterHTTPGateway(t *testing.T) {
	logger := zaptest.NewLogger(t)
	s := NewServer(50061, 8090, logger)

	if err := s.RegisterHTTPGateway(newFixture(t).handler, "secret"); err != nil {
		t.Fatalf("RegisterHTTPGateway failed: %v", err)
	}
	if s.httpServer.Handler == nil {
		t.Error("expected httpServer.Handler to be set")
	}
	if s.httpServer.Addr != s.httpEndpoint {
		t.Errorf("expected httpServer.Addr %q, got %q", s.httpEndpoint, s.httpServer.Addr)
	}
}

func TestServer_StartStop(t *testing.T) {
	logger := zaptest.NewLogger(t)
	// Use fixed ports so we know what address to dial.
	s := NewServer(50062, 8091, logger)

	handler := newFixture(t).handler
	s.RegisterGRPCHandler(handler)
	if err := s.RegisterHTTPGateway(handler, "secret"); err != nil {
		t.Fatalf("RegisterHTTPGateway failed: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	// Give the server a moment to start.
	time.Sleep(200 * time.Millisecond)

	conn, err := grpc.NewClient(
		"localhost"+s.grpcEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to connect to gRPC server: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	cancel()
	if err != nil {
		t.Errorf("health check failed: %v", err)
	} else if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("expected SERVING, got %v", resp.GetStatus())
	}
	conn.Close()

	s.Stop()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Server Start returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for server to stop")
	}

	// Verify that the gRPC server has stopped by attempting to listen on the same endpoint.
	lis, err := net.Listen("tcp", s.grpcEndpoint)
	if err != nil {
		t.Errorf("expected to be able to listen on %q after shutdown, but got error: %v", s.grpcEndpoint, err)
	} else {
		lis.Close()
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/visitlog/internal/visitlog/auth"
	"github.com/gartstein/visitlog/internal/visitlog/config"
	"github.com/gartstein/visitlog/internal/visitlog/controller"
	gorm "github.com/gartstein/visitlog/internal/visitlog/db"
	"github.com/gartstein/visitlog/internal/visitlog/drafts"
	"github.com/gartstein/visitlog/internal/visitlog/events"
	"github.com/gartstein/visitlog/internal/visitlog/handlers"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	path := config.DefaultPath
	if p := os.Getenv("VISITLOG_CONFIG"); p != "" {
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err), zap.String("path", path))
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("invalid timezone", zap.Error(err))
	}
	now := func() time.Time { return time.Now().In(loc) }

	repo, err := connectDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close database", zap.Error(err))
		}
	}()

	store, err := drafts.Open(cfg.DraftDBPath)
	if err != nil {
		logger.Fatal("failed to open draft store", zap.Error(err), zap.String("path", cfg.DraftDBPath))
	}
	draftManager := drafts.NewManager(store, cfg.DraftDebounce, logger)

	producer, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
	if err != nil {
		logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
	}
	defer producer.Close()

	companySvc := controller.NewCompanyService(repo, producer, logger)
	workLogSvc := controller.NewWorkLogService(repo, producer, draftManager, logger).WithClock(now)
	transferSvc := controller.NewTransferService(companySvc, companySvc, producer, logger).WithClock(now)

	listViews := controller.NewCompanyListViews(companySvc)

	handler := handlers.NewHandler(companySvc, listViews, workLogSvc, transferSvc, draftManager, logger).WithClock(now)

	authInterceptor := auth.NewAuthInterceptor(cfg.JWTSecret)
	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger, grpc.UnaryInterceptor(authInterceptor.Unary()))
	server.RegisterGRPCHandler(handler)

	if err := server.RegisterHTTPGateway(handler, cfg.JWTSecret); err != nil {
		logger.Fatal("Failed to register HTTP gateway", zap.Error(err))
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start servers", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := draftManager.Close(ctx); err != nil {
		logger.Error("failed to close draft store", zap.Error(err))
	}
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// connectDatabase retries until Postgres accepts connections or
// DBConnectWait elapses.
func connectDatabase(cfg *config.Config, logger *zap.Logger) (*gorm.Repository, error) {
	dbConf := &gorm.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = cfg.DBConnectWait

	var repo *gorm.Repository
	err := backoff.RetryNotify(func() error {
		var err error
		repo, err = gorm.NewRepository(dbConf)
		return err
	}, policy, func(err error, wait time.Duration) {
		logger.Warn("Database not ready", zap.Error(err), zap.Duration("retry_in", wait))
	})
	return repo, err
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down servers.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Servers stopped properly")
}

// Command eventlog follows the visit log event topic and writes every
// change notification to the log.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gartstein/visitlog/internal/visitlog/config"
	"github.com/gartstein/visitlog/internal/visitlog/events"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() {
		_ = logger.Sync()
	}()

	path := config.DefaultPath
	if p := os.Getenv("VISITLOG_CONFIG"); p != "" {
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err), zap.String("path", path))
	}

	consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, cfg.Topic, logger)
	consumer.RegisterHandler(func(_ context.Context, event events.Event) error {
		fields := []zap.Field{
			zap.String("event_type", string(event.Type)),
			zap.String("company_id", event.CompanyID.String()),
		}
		if event.Actor != "" {
			fields = append(fields, zap.String("user", event.Actor))
		}
		switch {
		case event.Company != nil:
			fields = append(fields, zap.String("company", event.Company.Name))
		case event.WorkLog != nil:
			fields = append(fields,
				zap.String("work_log_id", event.WorkLog.ID.String()),
				zap.Stringer("visit_date", event.WorkLog.VisitDate),
			)
		}
		if event.Deleted != nil {
			fields = append(fields, zap.Int64("work_logs_deleted", event.Deleted.WorkLogs))
		}
		if event.Import != nil {
			fields = append(fields,
				zap.String("file", event.Import.FileName),
				zap.Int("success", event.Import.SuccessCount),
				zap.Int("errors", event.Import.ErrorCount),
			)
		}
		logger.Info("Event", fields...)
		return nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := consumer.Start(ctx)
	logger.Info("Following events", zap.String("topic", cfg.Topic), zap.String("group", cfg.ConsumerGroup))
	<-done
	consumer.Close()
	logger.Info("Event log stopped")
}

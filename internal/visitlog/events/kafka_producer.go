// Package events publishes company and work log changes to Kafka and
// reads them back.
package events

import (
	"context"
	"encoding/json"

	"github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	CompanyCreated    EventType = "company_created"
	CompanyUpdated    EventType = "company_updated"
	CompanyDeleted    EventType = "company_deleted"
	WorkLogCreated    EventType = "worklog_created"
	WorkLogUpdated    EventType = "worklog_updated"
	WorkLogDeleted    EventType = "worklog_deleted"
	CompaniesImported EventType = "companies_imported"
)

// ImportSummary is the payload of a CompaniesImported event.
type ImportSummary struct {
	FileName     string
	SuccessCount int
	ErrorCount   int
}

// Event is one change notification. CompanyID is the message key, so all
// events of a company land on one partition. It is zero for imports.
type Event struct {
	Type      EventType
	CompanyID uuid.UUID
	// Actor is the authenticated user behind the change, if any.
	Actor   string                `json:",omitempty"`
	Company *models.Company       `json:",omitempty"`
	WorkLog *models.WorkLog       `json:",omitempty"`
	Import  *ImportSummary        `json:",omitempty"`
	Deleted *DeletedWorkLogsCount `json:",omitempty"`
}

// DeletedWorkLogsCount accompanies CompanyDeleted with the number of
// logs removed in the cascade.
type DeletedWorkLogsCount struct {
	WorkLogs int64
}

// CompanyEvent builds an event about a company.
func CompanyEvent(t EventType, c *models.Company) Event {
	return Event{Type: t, CompanyID: c.ID, Company: c}
}

// WorkLogEvent builds an event about a work log.
func WorkLogEvent(t EventType, w *models.WorkLog) Event {
	return Event{Type: t, CompanyID: w.CompanyID, WorkLog: w}
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
}

func NewProducer(brokers []string, logger *zap.Logger, topic string) (*Producer, error) {
	// Create topic if it doesn't exist
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}
	p := newProducer(&kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.Hash{},
		Topic:    topic,
	}, logger, 1000)

	go p.eventLoop()
	return p, nil
}

func newProducer(writer KafkaWriter, logger *zap.Logger, queue int) *Producer {
	return &Producer{
		writer:    writer,
		events:    make(chan Event, queue),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
	}
}

// Produce queues an event without blocking; when the queue is full the
// event is dropped and logged.
func (p *Producer) Produce(event Event) {
	select {
	case p.events <- event:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("company_id", event.CompanyID.String()),
		)
	}
}

func (p *Producer) eventLoop() {
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			return
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("company_id", event.CompanyID.String()),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.CompanyID.String()),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("company_id", event.CompanyID.String()),
		)
		return
	}
}

func (p *Producer) Close() {
	close(p.closeChan)
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}

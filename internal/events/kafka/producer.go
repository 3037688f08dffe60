// Package kafka publishes access-control events for downstream
// consumers (monitoring, long-term archival). Publishing is best
// effort: the API never fails a request because the broker is down.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// CloudEvent is the envelope every published event is wrapped in.
type CloudEvent struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	SpecVersion string          `json:"specversion"`
	Type        string          `json:"type"`
	Time        time.Time       `json:"time"`
	Subject     string          `json:"subject,omitempty"`
	ContentType string          `json:"contenttype"`
	Data        json.RawMessage `json:"data"`
}

// EventProducer publishes domain events.
type EventProducer interface {
	PublishAuditEvent(ctx context.Context, action string, subject string, data any) error
	PublishCommandEvent(ctx context.Context, lockID uuid.UUID, data any) error
	Close() error
}

// Producer writes CloudEvents to Kafka via kafka-go.
type Producer struct {
	auditWriter   *kafka.Writer
	commandWriter *kafka.Writer
	sourceName    string
	logger        *zap.Logger
}

// NewProducer creates a producer for the audit and command topics.
func NewProducer(brokers []string, auditTopic, commandTopic, sourceName string, logger *zap.Logger) *Producer {
	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		}
	}
	return &Producer{
		auditWriter:   newWriter(auditTopic),
		commandWriter: newWriter(commandTopic),
		sourceName:    sourceName,
		logger:        logger,
	}
}

// PublishAuditEvent mirrors one audit record to the audit topic.
func (p *Producer) PublishAuditEvent(ctx context.Context, action string, subject string, data any) error {
	return p.publish(ctx, p.auditWriter, "smartlock.audit."+action, subject, data)
}

// PublishCommandEvent announces a newly enqueued device command.
func (p *Producer) PublishCommandEvent(ctx context.Context, lockID uuid.UUID, data any) error {
	return p.publish(ctx, p.commandWriter, "smartlock.command.enqueued", lockID.String(), data)
}

func (p *Producer) publish(ctx context.Context, writer *kafka.Writer, eventType, subject string, data any) error {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	event := CloudEvent{
		ID:          uuid.New().String(),
		Source:      p.sourceName,
		SpecVersion: "1.0",
		Type:        eventType,
		Time:        time.Now().UTC(),
		Subject:     subject,
		ContentType: "application/json",
		Data:        dataBytes,
	}
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	err = writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(subject),
		Value: eventBytes,
		Headers: []kafka.Header{
			{Key: "ce_id", Value: []byte(event.ID)},
			{Key: "ce_source", Value: []byte(event.Source)},
			{Key: "ce_specversion", Value: []byte(event.SpecVersion)},
			{Key: "ce_type", Value: []byte(event.Type)},
			{Key: "ce_time", Value: []byte(event.Time.Format(time.RFC3339))},
			{Key: "ce_contenttype", Value: []byte(event.ContentType)},
		},
	})
	if err != nil {
		p.logger.Warn("failed to publish event",
			zap.String("type", eventType),
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close flushes and closes both writers.
func (p *Producer) Close() error {
	auditErr := p.auditWriter.Close()
	commandErr := p.commandWriter.Close()
	if auditErr != nil {
		return auditErr
	}
	return commandErr
}

// NoopProducer satisfies EventProducer when Kafka is disabled.
type NoopProducer struct{}

func (NoopProducer) PublishAuditEvent(ctx context.Context, action string, subject string, data any) error {
	return nil
}

func (NoopProducer) PublishCommandEvent(ctx context.Context, lockID uuid.UUID, data any) error {
	return nil
}

func (NoopProducer) Close() error { return nil }

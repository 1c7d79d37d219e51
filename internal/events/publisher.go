package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const producerName = "bankdesk"

// Publisher emits order lifecycle events. Publishing is best-effort and
// asynchronous: a broker outage never blocks or fails order processing.
type Publisher interface {
	Publish(eventType string, orderID int64, payload OrderPayload)
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(string, int64, OrderPayload) {}

// KafkaPublisher writes envelopes to the order topic through an async
// kafka-go writer; write errors surface only in logs.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafkaPublisher builds a publisher for the given brokers.
func NewKafkaPublisher(brokers []string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		logger: logger,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
			ErrorLogger: kafka.LoggerFunc(func(format string, args ...any) {
				logger.Error("kafka write failed", slog.String("detail", format))
			}),
		},
	}
}

func (p *KafkaPublisher) Publish(eventType string, orderID int64, payload OrderPayload) {
	raw, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("encode event payload", slog.String("error", err.Error()))
		return
	}

	envelope := Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Producer:   producerName,
		OrderID:    orderID,
		Payload:    raw,
	}

	value, err := json.Marshal(envelope)
	if err != nil {
		p.logger.Error("encode event envelope", slog.String("error", err.Error()))
		return
	}

	err = p.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   PartitionKey(orderID),
		Value: value,
		Time:  envelope.OccurredAt,
	})
	if err != nil {
		p.logger.Error("publish event", slog.String("type", eventType), slog.String("error", err.Error()))
	}
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aman7661/sumitTradingCompany/internal/metrics"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer  messageWriter
	logger  *zap.Logger
	timeout time.Duration
}

const batchTimeout = 10 * time.Millisecond

func NewKafkaPublisher(brokers []string, topic string, m *metrics.Metrics, logger *zap.Logger) *KafkaPublisher {
	return newKafkaPublisher(newWriter(brokers, topic, m, logger), logger)
}

// newWriter builds an async writer: WriteMessages only enqueues, and
// delivery failures are reported to Completion after the request is done.
func newWriter(brokers []string, topic string, m *metrics.Metrics, logger *zap.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		Async:                  true,
		BatchTimeout:           batchTimeout,
		Completion: func(messages []kafka.Message, err error) {
			if err == nil {
				return
			}
			m.EventPublishErrors.Add(float64(len(messages)))
			for _, msg := range messages {
				logger.Error("Failed to deliver order event",
					zap.String("order_number", string(msg.Key)),
					zap.Error(err))
			}
		},
	}
}

func newKafkaPublisher(writer messageWriter, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, logger: logger, timeout: 10 * time.Second}
}

// Publish keys messages by order number so one order's events stay on one
// partition. With the async writer it returns once the message is queued.
func (p *KafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal order event", zap.Error(err))
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderNumber),
		Value: eventBytes,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish order event",
			zap.String("event_id", event.EventID),
			zap.String("type", event.Type),
			zap.Error(err))
		return err
	}

	p.logger.Debug("Order event published",
		zap.String("event_id", event.EventID),
		zap.String("order_number", event.OrderNumber))
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

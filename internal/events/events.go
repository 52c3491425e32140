package events

import (
	"context"
	"time"

	"github.com/aman7661/sumitTradingCompany/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

// OrderEvent is published after an order is persisted or its status changes.
type OrderEvent struct {
	EventID        string             `json:"event_id"`
	Type           string             `json:"type"`
	OrderID        int64              `json:"order_id"`
	OrderNumber    string             `json:"order_number"`
	UserID         int64              `json:"user_id"`
	Status         models.OrderStatus `json:"status"`
	PreviousStatus models.OrderStatus `json:"previous_status,omitempty"`
	Total          decimal.Decimal    `json:"total"`
	PaymentMethod  string             `json:"payment_method"`
	Timestamp      time.Time          `json:"timestamp"`
	RequestID      string             `json:"request_id,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event OrderEvent) error {
	p.logger.Info("order event",
		zap.String("event_id", event.EventID),
		zap.String("type", event.Type),
		zap.String("order_number", event.OrderNumber),
		zap.String("status", string(event.Status)),
		zap.String("previous_status", string(event.PreviousStatus)),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

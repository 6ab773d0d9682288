// Package events publishes order lifecycle notifications.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/safar/go-bookstore/internal/models"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	OrderCreated        EventType = "order.created"
	OrderApproved       EventType = "order.approved"
	OrderCanceled       EventType = "order.canceled"
	OrderCompleted      EventType = "order.completed"
	OrderContactUpdated EventType = "order.contact_updated"
)

type OrderEvent struct {
	ID          string             `json:"id"`
	Type        EventType          `json:"type"`
	OrderID     int64              `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	AccountID   *int64             `json:"account_id,omitempty"`
	Status      models.OrderStatus `json:"status"`
	TotalPrice  decimal.Decimal    `json:"total_price"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

func NewOrderEvent(eventType EventType, order *models.Order) OrderEvent {
	return OrderEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		AccountID:   order.AccountID,
		Status:      order.Status,
		TotalPrice:  order.TotalPrice,
		OccurredAt:  time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

type noopPublisher struct{}

// NewNoopPublisher is used when no Kafka brokers are configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, OrderEvent) error { return nil }
func (noopPublisher) Close() error                              { return nil }

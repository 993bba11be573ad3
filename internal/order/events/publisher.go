package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"padaria/internal/domain"
	"padaria/internal/infrastructure/rabbitmq"
)

// Broker is the transport the publisher writes to; *rabbitmq.Broker satisfies it.
type Broker interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

type OrderEventPublisher struct {
	broker Broker
	now    func() time.Time
}

func NewOrderEventPublisher(broker Broker) *OrderEventPublisher {
	return &OrderEventPublisher{broker: broker, now: time.Now}
}

func (p *OrderEventPublisher) PublishOrderCreated(ctx context.Context, order domain.Order) error {
	return p.publish(ctx, rabbitmq.QueueOrderCreated, domain.OrderEvent{
		EventType: domain.EventOrderCreated,
		OrderID:   order.ID,
		RemoteID:  order.RemoteID,
		BakeryID:  order.BakeryID,
		Table:     order.Table,
		NewStatus: order.Status,
		Total:     order.Total().StringFixed(2),
		Timestamp: p.now().UTC(),
	})
}

func (p *OrderEventPublisher) PublishStatusChanged(ctx context.Context, order domain.Order, from, to domain.OrderStatus) error {
	return p.publish(ctx, rabbitmq.QueueOrderStatusChanged, domain.OrderEvent{
		EventType: domain.EventOrderStatusChanged,
		OrderID:   order.ID,
		RemoteID:  order.RemoteID,
		BakeryID:  order.BakeryID,
		OldStatus: from,
		NewStatus: to,
		Timestamp: p.now().UTC(),
	})
}

func (p *OrderEventPublisher) publish(ctx context.Context, queue string, event domain.OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", event.EventType, err)
	}
	return p.broker.Publish(ctx, queue, body)
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, domain.Order) error { return nil }

func (NopPublisher) PublishStatusChanged(context.Context, domain.Order, domain.OrderStatus, domain.OrderStatus) error {
	return nil
}

// Package events announces order lifecycle changes to outside systems.
package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hongminglow/foodie-be/internal/models"
)

// Type names an order lifecycle change.
type Type string

const (
	OrderCreated       Type = "order.created"
	OrderStatusChanged Type = "order.status_changed"
	OrderDeleted       Type = "order.deleted"
)

// Event is the JSON payload published for an order change.
type Event struct {
	Type     Type               `json:"type"`
	OrderID  string             `json:"orderId"`
	Order    *models.Order      `json:"order,omitempty"`
	Status   models.OrderStatus `json:"status,omitempty"`
	Previous models.OrderStatus `json:"previousStatus,omitempty"`
	At       time.Time          `json:"at"`
}

// Created is the event for a new order.
func Created(order models.Order) Event {
	return Event{Type: OrderCreated, OrderID: order.ID, Order: &order, Status: order.Status, At: time.Now().UTC()}
}

// StatusChanged is the event for an admin status update.
func StatusChanged(id string, from, to models.OrderStatus) Event {
	return Event{Type: OrderStatusChanged, OrderID: id, Status: to, Previous: from, At: time.Now().UTC()}
}

// Deleted is the event for an order removed by an admin.
func Deleted(id string) Event {
	return Event{Type: OrderDeleted, OrderID: id, At: time.Now().UTC()}
}

// Publisher delivers events. Callers log failures and carry on; the order
// change has already been committed.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Closer is implemented by publishers holding connections.
type Closer interface {
	Close() error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every publisher that holds resources.
func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if c, ok := p.(Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// LogPublisher writes events to the structured log. Used when no broker is set.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, e Event) error {
	slog.InfoContext(ctx, "order_event", "type", e.Type, "order_id", e.OrderID, "status", e.Status)
	return nil
}

// Report publishes e and logs any failure.
func Report(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		slog.WarnContext(ctx, "publish order event failed", "type", e.Type, "order_id", e.OrderID, "err", err)
	}
}

// Package orders lists orders and applies admin status changes.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hongminglow/foodie-be/internal/events"
	"github.com/hongminglow/foodie-be/internal/models"
	"github.com/hongminglow/foodie-be/internal/storage"
)

// ErrInvalidTransition is returned when the policy refuses a status change.
var ErrInvalidTransition = errors.New("order status transition not allowed")

// ErrInvalidStatus is returned for a target that is not an admin action.
var ErrInvalidStatus = errors.New("unknown order status")

// Policy decides which status changes an admin may make.
type Policy interface {
	Allowed(from, to models.OrderStatus) bool
	// Guarded reports whether the update must match the status it was read in.
	Guarded() bool
}

// Permissive allows any change between known statuses.
type Permissive struct{}

func (Permissive) Allowed(_, to models.OrderStatus) bool { return to.Valid() }
func (Permissive) Guarded() bool { return false }

// Strict allows Pending to confirmed or canceled, and confirmed to delivered.
type Strict struct{}

var strictTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:   {models.OrderConfirmed, models.OrderCanceled},
	models.OrderConfirmed: {models.OrderDelivered},
}

func (Strict) Allowed(from, to models.OrderStatus) bool {
	for _, next := range strictTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (Strict) Guarded() bool { return true }

// PolicyFor picks the policy named by the strict flag.
func PolicyFor(strict bool) Policy {
	if strict {
		return Strict{}
	}
	return Permissive{}
}

// Service reads and edits orders.
type Service struct {
	store  storage.OrderStore
	policy Policy
	events events.Publisher
}

func NewService(store storage.OrderStore, policy Policy, publisher events.Publisher) *Service {
	return &Service{store: store, policy: policy, events: publisher}
}

// ListForUser is the customer's order history, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.store.ListOrdersByUser(ctx, userID)
}

// ListAll is every order, newest first.
func (s *Service) ListAll(ctx context.Context) ([]models.Order, error) {
	return s.store.ListOrders(ctx)
}

// SetStatus moves an order to one of the admin targets and returns the
// updated order.
func (s *Service) SetStatus(ctx context.Context, id string, to models.OrderStatus) (models.Order, error) {
	if to == models.OrderPending || !to.Valid() {
		return models.Order{}, ErrInvalidStatus
	}
	current, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if !s.policy.Allowed(current.Status, to) {
		return models.Order{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, to)
	}
	var from models.OrderStatus
	if s.policy.Guarded() {
		from = current.Status
	}
	if err := s.store.UpdateOrderStatus(ctx, id, from, to); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return models.Order{}, fmt.Errorf("%w: order changed while updating", ErrInvalidTransition)
		}
		return models.Order{}, err
	}
	slog.InfoContext(ctx, "order status changed", "order_id", id, "from", current.Status, "to", to)
	events.Report(ctx, s.events, events.StatusChanged(id, current.Status, to))
	current.Status = to
	return current, nil
}

// Delete removes an order.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteOrder(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "order deleted", "order_id", id)
	events.Report(ctx, s.events, events.Deleted(id))
	return nil
}

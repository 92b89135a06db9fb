// Package cart holds the per-user cart and turns it into an order.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/foodie-be/internal/events"
	"github.com/hongminglow/foodie-be/internal/models"
	"github.com/hongminglow/foodie-be/internal/storage"
)

var (
	// ErrMustLogIn is returned when an anonymous visitor adds to the cart.
	ErrMustLogIn = errors.New("must log in to add to cart")
	// ErrAlreadyInCart is returned when the item already has a line.
	ErrAlreadyInCart = errors.New("item already in cart")
	// ErrEmptyCart is returned by Checkout when there is nothing to order.
	ErrEmptyCart = errors.New("cart is empty")
)

// anonymousName is stored on orders placed by accounts without a display name.
const anonymousName = "None"

// Store is the part of storage the cart needs.
type Store interface {
	storage.CartStore
	storage.MenuStore
}

// Service implements the cart and checkout flow.
type Service struct {
	store    Store
	notifier *Notifier
	events   events.Publisher
	now      func() time.Time
}

func NewService(store Store, notifier *Notifier, publisher events.Publisher) *Service {
	return &Service{store: store, notifier: notifier, events: publisher, now: time.Now}
}

// Add puts one menu item in the identity's cart. A second add of the same
// item writes nothing and returns ErrAlreadyInCart.
func (s *Service) Add(ctx context.Context, identity *models.Identity, itemID string) (models.CartLine, error) {
	if identity == nil {
		return models.CartLine{}, ErrMustLogIn
	}
	itemID = strings.TrimSpace(itemID)
	if _, err := s.store.FindCartLine(ctx, identity.ID, itemID); err == nil {
		return models.CartLine{}, ErrAlreadyInCart
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.CartLine{}, fmt.Errorf("find cart line: %w", err)
	}

	item, err := s.store.GetMenuItem(ctx, itemID)
	if err != nil {
		return models.CartLine{}, err
	}
	line, err := s.store.AddCartLine(ctx, models.CartLine{
		UserID:   identity.ID,
		ItemID:   item.ID,
		Name:     item.Name,
		Category: item.Category,
		Price:    item.Price,
		Recipe:   item.Recipe,
		Image:    item.Image,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.CartLine{}, ErrAlreadyInCart
		}
		return models.CartLine{}, fmt.Errorf("add cart line: %w", err)
	}
	s.notify(ctx, identity.ID)
	return line, nil
}

// Lines lists the user's cart in insertion order.
func (s *Service) Lines(ctx context.Context, userID string) ([]models.CartLine, error) {
	return s.store.ListCartLines(ctx, userID)
}

// Total is the sum of the user's current line prices.
func (s *Service) Total(ctx context.Context, userID string) (float64, error) {
	lines, err := s.store.ListCartLines(ctx, userID)
	if err != nil {
		return 0, err
	}
	return models.LinesTotal(lines), nil
}

func (s *Service) Count(ctx context.Context, userID string) (int, error) {
	return s.store.CountCartLines(ctx, userID)
}

// Remove deletes one line and returns what is left in the cart.
func (s *Service) Remove(ctx context.Context, userID, lineID string) ([]models.CartLine, error) {
	if err := s.store.DeleteCartLine(ctx, userID, lineID); err != nil {
		return nil, err
	}
	remaining, err := s.store.ListCartLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.notifier.Publish(userID, len(remaining))
	return remaining, nil
}

// Checkout turns the whole cart into a Pending order and empties the cart
// in the same store transaction.
func (s *Service) Checkout(ctx context.Context, identity models.Identity) (models.Order, error) {
	name := strings.TrimSpace(identity.DisplayName)
	if name == "" {
		name = anonymousName
	}
	order, err := s.store.CheckoutCart(ctx, identity.ID, func(lines []models.CartLine) (models.Order, error) {
		if len(lines) == 0 {
			return models.Order{}, ErrEmptyCart
		}
		return models.Order{
			ID:          uuid.NewString(),
			UserID:      identity.ID,
			UserName:    name,
			UserEmail:   identity.Email,
			Items:       lines,
			TotalAmount: models.LinesTotal(lines),
			Status:      models.OrderPending,
			CreatedAt:   s.now().UTC(),
		}, nil
	})
	if err != nil {
		return models.Order{}, err
	}
	slog.InfoContext(ctx, "order placed", "order_id", order.ID, "uid", identity.ID, "total", order.TotalAmount)
	s.notifier.Publish(identity.ID, 0)
	events.Report(ctx, s.events, events.Created(order))
	return order, nil
}

// Subscribe opens a cart count stream for userID primed with the current count.
func (s *Service) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	sub := s.notifier.Subscribe(userID)
	count, err := s.store.CountCartLines(ctx, userID)
	if err != nil {
		sub.Stop()
		return nil, err
	}
	s.notifier.Publish(userID, count)
	return sub, nil
}

func (s *Service) notify(ctx context.Context, userID string) {
	count, err := s.store.CountCartLines(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "cart count refresh failed", "uid", userID, "err", err)
		return
	}
	s.notifier.Publish(userID, count)
}

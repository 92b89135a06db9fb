package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/foodie-be/internal/events"
	"github.com/hongminglow/foodie-be/internal/models"
	"github.com/hongminglow/foodie-be/internal/storage"
	"github.com/hongminglow/foodie-be/internal/storage/memory"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, e events.Event) error {
	return m.Called(ctx, e).Error(0)
}

func placeOrder(t *testing.T, store *memory.Store, userID string, price float64) models.Order {
	t.Helper()
	order, err := store.CheckoutCart(context.Background(), userID, func(_ []models.CartLine) (models.Order, error) {
		return models.Order{
			UserID:      userID,
			Items:       []models.CartLine{{ID: "l", Name: "Soup", Price: price}},
			TotalAmount: price,
			Status:      models.OrderPending,
		}, nil
	})
	require.NoError(t, err)
	return order
}

func TestPermissiveAllowsAnyTransition(t *testing.T) {
	store := memory.New()
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	svc := NewService(store, PolicyFor(false), pub)
	ctx := context.Background()
	order := placeOrder(t, store, "u1", 5)

	for _, to := range []models.OrderStatus{models.OrderDelivered, models.OrderCanceled, models.OrderConfirmed} {
		updated, err := svc.SetStatus(ctx, order.ID, to)
		require.NoError(t, err)
		assert.Equal(t, to, updated.Status)
	}
	pub.AssertNumberOfCalls(t, "Publish", 3)

	_, err := svc.SetStatus(ctx, order.ID, models.OrderPending)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.SetStatus(ctx, order.ID, "shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.SetStatus(ctx, "missing", models.OrderConfirmed)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStrictMachine(t *testing.T) {
	store := memory.New()
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.OrderStatusChanged
	})).Return(nil)
	svc := NewService(store, PolicyFor(true), pub)
	ctx := context.Background()

	order := placeOrder(t, store, "u1", 5)
	_, err := svc.SetStatus(ctx, order.ID, models.OrderDelivered)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.SetStatus(ctx, order.ID, models.OrderConfirmed)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, order.ID, models.OrderCanceled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.SetStatus(ctx, order.ID, models.OrderDelivered)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, order.ID, models.OrderConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition, "delivered is terminal")

	other := placeOrder(t, store, "u2", 3)
	_, err = svc.SetStatus(ctx, other.ID, models.OrderCanceled)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, other.ID, models.OrderConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition, "canceled is terminal")
}

type racingStore struct {
	storage.OrderStore
}

func (r racingStore) UpdateOrderStatus(context.Context, string, models.OrderStatus, models.OrderStatus) error {
	return storage.ErrConflict
}

func TestStrictGuardedUpdateConflict(t *testing.T) {
	store := memory.New()
	order := placeOrder(t, store, "u1", 5)
	svc := NewService(racingStore{store}, Strict{}, &mockPublisher{})

	_, err := svc.SetStatus(context.Background(), order.ID, models.OrderConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestListsAndDelete(t *testing.T) {
	store := memory.New()
	pub := &mockPublisher{}
	svc := NewService(store, Permissive{}, pub)
	ctx := context.Background()

	mine, err := svc.ListForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, mine)

	first := placeOrder(t, store, "u1", 5)
	second := placeOrder(t, store, "u1", 7)
	placeOrder(t, store, "u2", 9)

	mine, err = svc.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.OrderDeleted && e.OrderID == first.ID
	})).Return(nil).Once()
	require.NoError(t, svc.Delete(ctx, first.ID))
	assert.ErrorIs(t, svc.Delete(ctx, first.ID), storage.ErrNotFound)
	pub.AssertExpectations(t)
}

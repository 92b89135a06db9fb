package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/foodie-be/internal/models"
	"github.com/hongminglow/foodie-be/internal/storage"
)

const orderColumns = `id, user_id, user_name, user_email, items, total_amount::float8, status, created_at`

// ListOrders returns every order, newest first.
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id`)
}

// ListOrdersByUser returns the user's orders, newest first.
func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
}

// GetOrder fetches one order.
func (s *Store) GetOrder(ctx context.Context, id string) (models.Order, error) {
	return scanOrder(s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

// UpdateOrderStatus writes the status, guarded on from when it is set.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, from, to models.OrderStatus) error {
	if from == "" {
		tag, err := s.pool.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, string(to))
		if err != nil {
			return err
		}
		return requireAffected(tag)
	}

	tag, err := s.pool.Exec(ctx, `UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`, id, string(from), string(to))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetOrder(ctx, id); err != nil {
			return err
		}
		return storage.ErrConflict
	}
	return nil
}

// DeleteOrder removes an order.
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(tag)
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func scanOrder(row pgx.Row) (models.Order, error) {
	var order models.Order
	var itemsJSON []byte
	var status string
	if err := row.Scan(&order.ID, &order.UserID, &order.UserName, &order.UserEmail, &itemsJSON,
		&order.TotalAmount, &status, &order.CreatedAt); err != nil {
		return models.Order{}, notFound(err)
	}
	order.Status = models.OrderStatus(status)
	order.Items = []models.CartLine{}
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
			return models.Order{}, fmt.Errorf("unmarshal order items: %w", err)
		}
	}
	return order, nil
}

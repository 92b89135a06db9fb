package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/foodie-be/internal/models"
	"github.com/hongminglow/foodie-be/internal/storage"
)

const cartColumns = `id, user_id, item_id, name, category, price::float8, recipe, image, created_at`

// FindCartLine looks up the line for a (user, item) pair.
func (s *Store) FindCartLine(ctx context.Context, userID, itemID string) (models.CartLine, error) {
	return scanCartLine(s.pool.QueryRow(ctx,
		`SELECT `+cartColumns+` FROM cart WHERE user_id = $1 AND item_id = $2`, userID, itemID))
}

// ListCartLines returns the user's lines in the order they were added.
func (s *Store) ListCartLines(ctx context.Context, userID string) ([]models.CartLine, error) {
	return listCartLines(ctx, s.pool, userID, false)
}

// CountCartLines counts the user's lines.
func (s *Store) CountCartLines(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cart WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

// AddCartLine inserts a line. A second line for the same item is rejected.
func (s *Store) AddCartLine(ctx context.Context, line models.CartLine) (models.CartLine, error) {
	if line.ID == "" {
		line.ID = uuid.NewString()
	}
	const query = `
		INSERT INTO cart (id, user_id, item_id, name, category, price, recipe, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + cartColumns
	created, err := scanCartLine(s.pool.QueryRow(ctx, query,
		line.ID, line.UserID, line.ItemID, line.Name, string(line.Category), line.Price, line.Recipe, line.Image))
	if err != nil {
		if isUniqueViolation(err) {
			return models.CartLine{}, storage.ErrAlreadyExists
		}
		return models.CartLine{}, err
	}
	return created, nil
}

// DeleteCartLine removes one of the user's lines.
func (s *Store) DeleteCartLine(ctx context.Context, userID, lineID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM cart WHERE id = $1 AND user_id = $2`, lineID, userID)
	if err != nil {
		return err
	}
	return requireAffected(tag)
}

// CheckoutCart locks the user's lines, inserts the order and clears the cart.
func (s *Store) CheckoutCart(ctx context.Context, userID string, build storage.OrderBuilder) (models.Order, error) {
	var order models.Order
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		lines, err := listCartLines(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		order, err = build(lines)
		if err != nil {
			return err
		}
		if order.ID == "" {
			order.ID = uuid.NewString()
		}
		itemsJSON, err := json.Marshal(order.Items)
		if err != nil {
			return fmt.Errorf("marshal order items: %w", err)
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO orders (id, user_id, user_name, user_email, items, total_amount, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at`,
			order.ID, order.UserID, order.UserName, order.UserEmail, itemsJSON, order.TotalAmount,
			string(order.Status), order.CreatedAt,
		).Scan(&order.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		// Only the lines read above; a line added after the lock stays in the cart.
		ids := make([]string, 0, len(lines))
		for _, line := range lines {
			ids = append(ids, line.ID)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM cart WHERE user_id = $1 AND id = ANY($2)`, userID, ids); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listCartLines(ctx context.Context, q querier, userID string, forUpdate bool) ([]models.CartLine, error) {
	query := `SELECT ` + cartColumns + ` FROM cart WHERE user_id = $1 ORDER BY created_at, id`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []models.CartLine{}
	for rows.Next() {
		line, err := scanCartLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanCartLine(row pgx.Row) (models.CartLine, error) {
	var line models.CartLine
	var category string
	if err := row.Scan(&line.ID, &line.UserID, &line.ItemID, &line.Name, &category, &line.Price,
		&line.Recipe, &line.Image, &line.CreatedAt); err != nil {
		return models.CartLine{}, notFound(err)
	}
	line.Category = models.Category(category)
	return line, nil
}

package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/foodie-be/internal/models"
)

const menuColumns = `id, name, category, price::float8, recipe, image, created_at`

// ListMenu returns the whole catalog in insertion order.
func (s *Store) ListMenu(ctx context.Context) ([]models.MenuItem, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+menuColumns+` FROM menu ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.MenuItem{}
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetMenuItem fetches one item.
func (s *Store) GetMenuItem(ctx context.Context, id string) (models.MenuItem, error) {
	return scanMenuItem(s.pool.QueryRow(ctx, `SELECT `+menuColumns+` FROM menu WHERE id = $1`, id))
}

// CreateMenuItem inserts an item under a generated id.
func (s *Store) CreateMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	const query = `
		INSERT INTO menu (id, name, category, price, recipe, image)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + menuColumns
	return scanMenuItem(s.pool.QueryRow(ctx, query,
		item.ID, item.Name, string(item.Category), item.Price, item.Recipe, item.Image))
}

// UpdateMenuItem applies the non-nil fields of update.
func (s *Store) UpdateMenuItem(ctx context.Context, id string, update models.MenuItemUpdate) (models.MenuItem, error) {
	const query = `
		UPDATE menu SET
			name = COALESCE($2, name),
			price = COALESCE($3, price),
			image = COALESCE($4, image),
			recipe = COALESCE($5, recipe)
		WHERE id = $1
		RETURNING ` + menuColumns
	return scanMenuItem(s.pool.QueryRow(ctx, query, id, update.Name, update.Price, update.Image, update.Recipe))
}

// DeleteMenuItem removes an item. Cart lines and orders keep their copies.
func (s *Store) DeleteMenuItem(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM menu WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(tag)
}

func scanMenuItem(row pgx.Row) (models.MenuItem, error) {
	var item models.MenuItem
	var category string
	if err := row.Scan(&item.ID, &item.Name, &category, &item.Price, &item.Recipe, &item.Image, &item.CreatedAt); err != nil {
		return models.MenuItem{}, notFound(err)
	}
	item.Category = models.Category(category)
	return item, nil
}

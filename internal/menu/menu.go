// Package menu is the admin editor for menu items.
package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/hongminglow/foodie-be/internal/models"
	"github.com/hongminglow/foodie-be/internal/storage"
)

// ErrInvalidItem wraps every validation failure.
var ErrInvalidItem = errors.New("invalid menu item")

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, body io.Reader) (string, error)
}

// Draft is a new menu item as submitted by an admin.
type Draft struct {
	Name     string
	Category models.Category
	Price    float64
	Recipe   string
	// Image is used when no file is attached.
	Image string
}

// ImageFile is an attached image to upload before saving.
type ImageFile struct {
	Filename string
	Body     io.Reader
}

type Service struct {
	store    storage.MenuStore
	uploader Uploader
}

func NewService(store storage.MenuStore, uploader Uploader) *Service {
	return &Service{store: store, uploader: uploader}
}

// List returns the menu in fetch order.
func (s *Service) List(ctx context.Context) ([]models.MenuItem, error) {
	return s.store.ListMenu(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (models.MenuItem, error) {
	return s.store.GetMenuItem(ctx, id)
}

// Create validates the draft, uploads the image if one is attached and
// saves the item.
func (s *Service) Create(ctx context.Context, draft Draft, file *ImageFile) (models.MenuItem, error) {
	draft.Name = strings.TrimSpace(draft.Name)
	draft.Recipe = strings.TrimSpace(draft.Recipe)
	draft.Image = strings.TrimSpace(draft.Image)
	switch {
	case draft.Name == "":
		return models.MenuItem{}, invalid("name is required")
	case !draft.Category.Valid():
		return models.MenuItem{}, invalid("unknown category %q", draft.Category)
	case draft.Price < 0:
		return models.MenuItem{}, invalid("price must not be negative")
	case !wholeCents(draft.Price):
		return models.MenuItem{}, invalid("price must have at most two decimals")
	case draft.Recipe == "":
		return models.MenuItem{}, invalid("recipe is required")
	}

	if file != nil {
		url, err := s.uploader.Upload(ctx, file.Filename, file.Body)
		if err != nil {
			return models.MenuItem{}, fmt.Errorf("upload image: %w", err)
		}
		draft.Image = url
	}
	if draft.Image == "" {
		return models.MenuItem{}, invalid("image is required")
	}

	item, err := s.store.CreateMenuItem(ctx, models.MenuItem{
		Name:     draft.Name,
		Category: draft.Category,
		Price:    draft.Price,
		Recipe:   draft.Recipe,
		Image:    draft.Image,
	})
	if err != nil {
		return models.MenuItem{}, fmt.Errorf("create menu item: %w", err)
	}
	slog.InfoContext(ctx, "menu item created", "item_id", item.ID, "name", item.Name)
	return item, nil
}

// Update edits name, price, image and recipe. Unset fields are kept.
func (s *Service) Update(ctx context.Context, id string, update models.MenuItemUpdate) (models.MenuItem, error) {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return models.MenuItem{}, invalid("name must not be empty")
		}
		update.Name = &name
	}
	if update.Price != nil {
		if *update.Price < 0 {
			return models.MenuItem{}, invalid("price must not be negative")
		}
		if !wholeCents(*update.Price) {
			return models.MenuItem{}, invalid("price must have at most two decimals")
		}
	}
	return s.store.UpdateMenuItem(ctx, id, update)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteMenuItem(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "menu item deleted", "item_id", id)
	return nil
}

// wholeCents reports whether price fits the store's two-decimal column.
func wholeCents(price float64) bool {
	cents := price * 100
	return math.Abs(cents-math.Round(cents)) < 1e-6
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidItem, fmt.Sprintf(format, args...))
}

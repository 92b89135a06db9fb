package menu

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/foodie-be/internal/models"
	"github.com/hongminglow/foodie-be/internal/storage"
	"github.com/hongminglow/foodie-be/internal/storage/memory"
)

type stubUploader struct {
	url      string
	err      error
	received string
}

func (s *stubUploader) Upload(_ context.Context, filename string, body io.Reader) (string, error) {
	data, _ := io.ReadAll(body)
	s.received = filename + ":" + string(data)
	return s.url, s.err
}

func validDraft() Draft {
	return Draft{Name: " Caesar ", Category: models.CategorySalad, Price: 8.5, Recipe: "romaine", Image: "https://img.test/c.jpg"}
}

func TestCreate(t *testing.T) {
	svc := NewService(memory.New(), &stubUploader{})
	item, err := svc.Create(context.Background(), validDraft(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "Caesar", item.Name)
	assert.Equal(t, "https://img.test/c.jpg", item.Image)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateUploadsAttachedImage(t *testing.T) {
	up := &stubUploader{url: "https://img.test/up.jpg"}
	svc := NewService(memory.New(), up)
	draft := validDraft()
	draft.Image = ""

	item, err := svc.Create(context.Background(), draft, &ImageFile{Filename: "c.jpg", Body: strings.NewReader("bytes")})
	require.NoError(t, err)
	assert.Equal(t, "https://img.test/up.jpg", item.Image)
	assert.Equal(t, "c.jpg:bytes", up.received)

	up.err = errors.New("host down")
	_, err = svc.Create(context.Background(), draft, &ImageFile{Filename: "c.jpg", Body: strings.NewReader("bytes")})
	assert.ErrorContains(t, err, "host down")
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(memory.New(), &stubUploader{})
	mutate := map[string]func(*Draft){
		"no name":        func(d *Draft) { d.Name = "  " },
		"bad category":   func(d *Draft) { d.Category = "tacos" },
		"negative price": func(d *Draft) { d.Price = -1 },
		"sub-cent price": func(d *Draft) { d.Price = 4.999 },
		"no recipe":      func(d *Draft) { d.Recipe = "" },
		"no image":       func(d *Draft) { d.Image = "" },
	}
	for name, fn := range mutate {
		t.Run(name, func(t *testing.T) {
			d := validDraft()
			fn(&d)
			_, err := svc.Create(context.Background(), d, nil)
			assert.ErrorIs(t, err, ErrInvalidItem)
		})
	}
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), &stubUploader{})
	item, err := svc.Create(ctx, validDraft(), nil)
	require.NoError(t, err)

	price := 9.75
	name := "Caesar Deluxe"
	updated, err := svc.Update(ctx, item.ID, models.MenuItemUpdate{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Caesar Deluxe", updated.Name)
	assert.Equal(t, 9.75, updated.Price)
	assert.Equal(t, item.Recipe, updated.Recipe)

	negative := -2.0
	_, err = svc.Update(ctx, item.ID, models.MenuItemUpdate{Price: &negative})
	assert.ErrorIs(t, err, ErrInvalidItem)
	subCent := 9.755
	_, err = svc.Update(ctx, item.ID, models.MenuItemUpdate{Price: &subCent})
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = svc.Update(ctx, "missing", models.MenuItemUpdate{Price: &price})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, item.ID))
	_, err = svc.Get(ctx, item.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

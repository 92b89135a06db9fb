package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/foodie-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrConflict indicates a guarded update matched no row in the expected state.
var ErrConflict = errors.New("record changed concurrently")

// CredentialStore holds sign-in accounts and password reset tokens.
type CredentialStore interface {
	CreateCredential(ctx context.Context, cred models.Credential) (models.Credential, error)
	FindCredentialByID(ctx context.Context, id string) (models.Credential, error)
	FindCredentialByEmail(ctx context.Context, email string) (models.Credential, error)
	UpdateCredentialProfile(ctx context.Context, id, displayName, avatarURL string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	DeleteCredential(ctx context.Context, id string) error

	SaveResetToken(ctx context.Context, tokenHash, credentialID string, expiresAt time.Time) error
	// ConsumeResetToken removes the token and returns its owner if it has not expired.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (string, error)
}

// UserStore is the users collection.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SetUserRole(ctx context.Context, id string, role models.Role) error
	DeleteUser(ctx context.Context, id string) error
}

// MenuStore is the menu collection.
type MenuStore interface {
	ListMenu(ctx context.Context) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, id string) (models.MenuItem, error)
	CreateMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id string, update models.MenuItemUpdate) (models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id string) error
}

// OrderBuilder turns the cart lines read inside a checkout transaction into
// the order to persist.
type OrderBuilder func(lines []models.CartLine) (models.Order, error)

// CartStore is the cart collection.
type CartStore interface {
	FindCartLine(ctx context.Context, userID, itemID string) (models.CartLine, error)
	ListCartLines(ctx context.Context, userID string) ([]models.CartLine, error)
	CountCartLines(ctx context.Context, userID string) (int, error)
	AddCartLine(ctx context.Context, line models.CartLine) (models.CartLine, error)
	DeleteCartLine(ctx context.Context, userID, lineID string) error
	// CheckoutCart reads the user's lines, inserts the built order and clears
	// the lines in one transaction.
	CheckoutCart(ctx context.Context, userID string, build OrderBuilder) (models.Order, error)
}

// OrderStore is the orders collection.
type OrderStore interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	GetOrder(ctx context.Context, id string) (models.Order, error)
	// UpdateOrderStatus sets the status. A non-empty from only matches an
	// order currently in that status; otherwise ErrConflict.
	UpdateOrderStatus(ctx context.Context, id string, from, to models.OrderStatus) error
	DeleteOrder(ctx context.Context, id string) error
}

// Store bundles every collection behind one backend.
type Store interface {
	CredentialStore
	UserStore
	MenuStore
	CartStore
	OrderStore
	Close()
}

// Package memory is an in-process storage.Store for local runs and tests.
// Data lives only as long as the process.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/foodie-be/internal/models"
	"github.com/hongminglow/foodie-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type resetToken struct {
	credentialID string
	expiresAt    time.Time
}

// Store keeps every collection in maps guarded by one mutex.
type Store struct {
	mu          sync.Mutex
	seq         int64
	credentials map[string]models.Credential
	resets      map[string]resetToken
	users       map[string]models.User
	menu        map[string]models.MenuItem
	cart        map[string]models.CartLine
	orders      map[string]models.Order
	now         func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		credentials: make(map[string]models.Credential),
		resets:      make(map[string]resetToken),
		users:       make(map[string]models.User),
		menu:        make(map[string]models.MenuItem),
		cart:        make(map[string]models.CartLine),
		orders:      make(map[string]models.Order),
		now:         time.Now,
	}
}

// Close is a no-op.
func (s *Store) Close() {}

// stamp returns a strictly increasing creation time so insertion order is
// stable even when the clock does not advance between calls.
func (s *Store) stamp() time.Time {
	s.seq++
	return s.now().UTC().Add(time.Duration(s.seq) * time.Nanosecond)
}

func (s *Store) CreateCredential(_ context.Context, cred models.Credential) (models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.credentials {
		if strings.EqualFold(existing.Email, cred.Email) {
			return models.Credential{}, storage.ErrAlreadyExists
		}
	}
	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	cred.CreatedAt = s.stamp()
	s.credentials[cred.ID] = cred
	return cred, nil
}

func (s *Store) FindCredentialByID(_ context.Context, id string) (models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.credentials[id]
	if !ok {
		return models.Credential{}, storage.ErrNotFound
	}
	return cred, nil
}

func (s *Store) FindCredentialByEmail(_ context.Context, email string) (models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cred := range s.credentials {
		if strings.EqualFold(cred.Email, email) {
			return cred, nil
		}
	}
	return models.Credential{}, storage.ErrNotFound
}

func (s *Store) UpdateCredentialProfile(_ context.Context, id, displayName, avatarURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.credentials[id]
	if !ok {
		return storage.ErrNotFound
	}
	cred.DisplayName = displayName
	cred.AvatarURL = avatarURL
	s.credentials[id] = cred
	return nil
}

func (s *Store) UpdatePasswordHash(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.credentials[id]
	if !ok {
		return storage.ErrNotFound
	}
	cred.PasswordHash = hash
	s.credentials[id] = cred
	return nil
}

func (s *Store) DeleteCredential(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.credentials, id)
	for hash, token := range s.resets {
		if token.credentialID == id {
			delete(s.resets, hash)
		}
	}
	return nil
}

func (s *Store) SaveResetToken(_ context.Context, tokenHash, credentialID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[credentialID]; !ok {
		return storage.ErrNotFound
	}
	s.resets[tokenHash] = resetToken{credentialID: credentialID, expiresAt: expiresAt}
	return nil
}

func (s *Store) ConsumeResetToken(_ context.Context, tokenHash string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.resets[tokenHash]
	if !ok {
		return "", storage.ErrNotFound
	}
	delete(s.resets, tokenHash)
	if !now.Before(token.expiresAt) {
		return "", storage.ErrNotFound
	}
	return token.credentialID, nil
}

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return models.User{}, storage.ErrAlreadyExists
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.CreatedAt = s.stamp()
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) GetUser(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := sortedValues(s.users, func(u models.User) time.Time { return u.CreatedAt })
	for _, user := range users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.users, func(u models.User) time.Time { return u.CreatedAt }), nil
}

func (s *Store) SetUserRole(_ context.Context, id string, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	user.Role = role
	s.users[id] = user
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) ListMenu(_ context.Context) ([]models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.menu, func(m models.MenuItem) time.Time { return m.CreatedAt }), nil
}

func (s *Store) GetMenuItem(_ context.Context, id string) (models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.menu[id]
	if !ok {
		return models.MenuItem{}, storage.ErrNotFound
	}
	return item, nil
}

func (s *Store) CreateMenuItem(_ context.Context, item models.MenuItem) (models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.CreatedAt = s.stamp()
	s.menu[item.ID] = item
	return item, nil
}

func (s *Store) UpdateMenuItem(_ context.Context, id string, update models.MenuItemUpdate) (models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.menu[id]
	if !ok {
		return models.MenuItem{}, storage.ErrNotFound
	}
	if update.Name != nil {
		item.Name = *update.Name
	}
	if update.Price != nil {
		item.Price = *update.Price
	}
	if update.Image != nil {
		item.Image = *update.Image
	}
	if update.Recipe != nil {
		item.Recipe = *update.Recipe
	}
	s.menu[id] = item
	return item, nil
}

func (s *Store) DeleteMenuItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.menu[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.menu, id)
	return nil
}

func (s *Store) FindCartLine(_ context.Context, userID, itemID string) (models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range s.cart {
		if line.UserID == userID && line.ItemID == itemID {
			return line, nil
		}
	}
	return models.CartLine{}, storage.ErrNotFound
}

func (s *Store) ListCartLines(_ context.Context, userID string) ([]models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linesOf(userID), nil
}

func (s *Store) CountCartLines(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.linesOf(userID)), nil
}

func (s *Store) AddCartLine(_ context.Context, line models.CartLine) (models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.cart {
		if existing.UserID == line.UserID && existing.ItemID == line.ItemID {
			return models.CartLine{}, storage.ErrAlreadyExists
		}
	}
	if line.ID == "" {
		line.ID = uuid.NewString()
	}
	line.CreatedAt = s.stamp()
	s.cart[line.ID] = line
	return line, nil
}

func (s *Store) DeleteCartLine(_ context.Context, userID, lineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, ok := s.cart[lineID]
	if !ok || line.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.cart, lineID)
	return nil
}

func (s *Store) CheckoutCart(_ context.Context, userID string, build storage.OrderBuilder) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.linesOf(userID)
	order, err := build(lines)
	if err != nil {
		return models.Order{}, err
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.stamp()
	}
	order.Items = append([]models.CartLine(nil), order.Items...)
	s.orders[order.ID] = order
	for _, line := range lines {
		delete(s.cart, line.ID)
	}
	return order, nil
}

func (s *Store) ListOrders(_ context.Context) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newestFirst(sortedValues(s.orders, func(o models.Order) time.Time { return o.CreatedAt })), nil
}

func (s *Store) ListOrdersByUser(_ context.Context, userID string) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := sortedValues(s.orders, func(o models.Order) time.Time { return o.CreatedAt })
	mine := []models.Order{}
	for _, order := range all {
		if order.UserID == userID {
			mine = append(mine, order)
		}
	}
	return newestFirst(mine), nil
}

func (s *Store) GetOrder(_ context.Context, id string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return models.Order{}, storage.ErrNotFound
	}
	order.Items = append([]models.CartLine(nil), order.Items...)
	return order, nil
}

func (s *Store) UpdateOrderStatus(_ context.Context, id string, from, to models.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return storage.ErrNotFound
	}
	if from != "" && order.Status != from {
		return storage.ErrConflict
	}
	order.Status = to
	s.orders[id] = order
	return nil
}

func (s *Store) DeleteOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *Store) linesOf(userID string) []models.CartLine {
	lines := []models.CartLine{}
	for _, line := range sortedValues(s.cart, func(l models.CartLine) time.Time { return l.CreatedAt }) {
		if line.UserID == userID {
			lines = append(lines, line)
		}
	}
	return lines
}

func sortedValues[T any](m map[string]T, created func(T) time.Time) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return created(out[i]).Before(created(out[j]))
	})
	return out
}

func newestFirst[T any](in []T) []T {
	for i, j := 0, len(in)-1; i < j; i, j = i+1, j-1 {
		in[i], in[j] = in[j], in[i]
	}
	return in
}

// Package users is the admin editor for user records and roles.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hongminglow/foodie-be/internal/models"
	"github.com/hongminglow/foodie-be/internal/storage"
)

// Store is the part of storage the users editor needs.
type Store interface {
	storage.UserStore
	storage.CredentialStore
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns every user record.
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

// ToggleRole flips a user between user and admin.
func (s *Service) ToggleRole(ctx context.Context, id string) (models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	next := user.Role.Toggled()
	if err := s.store.SetUserRole(ctx, id, next); err != nil {
		return models.User{}, err
	}
	slog.InfoContext(ctx, "user role changed", "uid", id, "role", next)
	user.Role = next
	return user, nil
}

// Delete removes the target's user record. The sign-in credential is only
// removed when actor deletes their own record; for anyone else it is left
// in place.
func (s *Service) Delete(ctx context.Context, actor models.Identity, targetID string) error {
	if err := s.store.DeleteUser(ctx, targetID); err != nil {
		return err
	}
	if actor.ID != targetID {
		slog.InfoContext(ctx, "user record deleted", "uid", targetID, "by", actor.ID)
		return nil
	}
	if err := s.store.DeleteCredential(ctx, targetID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete credential: %w", err)
	}
	slog.InfoContext(ctx, "account deleted by owner", "uid", targetID)
	return nil
}

// Promote makes the account registered under email an admin, creating the
// user record if the account has none. Used to bootstrap the first admin.
func (s *Service) Promote(ctx context.Context, email string) (models.User, error) {
	email = strings.TrimSpace(email)
	user, err := s.store.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.store.SetUserRole(ctx, user.ID, models.RoleAdmin); err != nil {
			return models.User{}, err
		}
		user.Role = models.RoleAdmin
		return user, nil
	case !errors.Is(err, storage.ErrNotFound):
		return models.User{}, err
	}

	cred, err := s.store.FindCredentialByEmail(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	return s.store.CreateUser(ctx, models.User{
		ID:    cred.ID,
		Name:  cred.DisplayName,
		Email: cred.Email,
		Role:  models.RoleAdmin,
	})
}

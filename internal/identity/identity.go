// Package identity is the account backend: registration, sign-in, password
// reset and profile updates over the credential and user stores.
package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hongminglow/foodie-be/internal/auth"
	"github.com/hongminglow/foodie-be/internal/models"
	"github.com/hongminglow/foodie-be/internal/storage"
)

// ErrInvalidCredentials is the only error surfaced for a failed sign-in or sign-up.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInvalidResetToken is returned for unknown, used or expired reset tokens.
var ErrInvalidResetToken = errors.New("reset link is invalid or has expired")

const minPasswordLength = 6

// Store is the part of storage the identity backend needs.
type Store interface {
	storage.CredentialStore
	storage.UserStore
}

// Service implements the identity backend operations.
type Service struct {
	store    Store
	mailer   Mailer
	resetTTL time.Duration
	resetURL string
	now      func() time.Time
}

// NewService wires the backend. resetURL is the page that accepts ?token=.
func NewService(store Store, mailer Mailer, resetTTL time.Duration, resetURL string) *Service {
	return &Service{
		store:    store,
		mailer:   mailer,
		resetTTL: resetTTL,
		resetURL: resetURL,
		now:      time.Now,
	}
}

// CreateAccount registers a credential and its user record with the default role.
func (s *Service) CreateAccount(ctx context.Context, name, email, password string) (models.Identity, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if !validEmail(email) || !validPassword(password) {
		return models.Identity{}, ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.Identity{}, fmt.Errorf("hash password: %w", err)
	}

	cred, err := s.store.CreateCredential(ctx, models.Credential{
		Email:        email,
		DisplayName:  name,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.Identity{}, ErrInvalidCredentials
		}
		return models.Identity{}, fmt.Errorf("create credential: %w", err)
	}

	user, err := s.store.CreateUser(ctx, models.User{
		ID:    cred.ID,
		Name:  name,
		Email: email,
		Role:  models.RoleUser,
	})
	if err != nil {
		// The credential exists without a profile; it still signs in as a plain user.
		slog.Error("create user record", "uid", cred.ID, "err", err)
		return models.NewIdentity(cred, nil), nil
	}
	return models.NewIdentity(cred, &user), nil
}

// SignIn verifies an email and password.
func (s *Service) SignIn(ctx context.Context, email, password string) (models.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.Identity{}, ErrInvalidCredentials
	}
	cred, err := s.store.FindCredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Identity{}, ErrInvalidCredentials
		}
		return models.Identity{}, fmt.Errorf("find credential: %w", err)
	}
	if !auth.CheckPassword(cred.PasswordHash, password) {
		return models.Identity{}, ErrInvalidCredentials
	}
	return s.identityFor(ctx, cred)
}

// Lookup resolves the identity for a credential id, reloading the role.
func (s *Service) Lookup(ctx context.Context, id string) (models.Identity, error) {
	cred, err := s.store.FindCredentialByID(ctx, id)
	if err != nil {
		return models.Identity{}, err
	}
	return s.identityFor(ctx, cred)
}

// SendPasswordReset mails a single-use reset link. Unknown emails succeed
// silently so the response does not reveal which addresses exist.
func (s *Service) SendPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if !validEmail(email) {
		return ErrInvalidCredentials
	}
	cred, err := s.store.FindCredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find credential: %w", err)
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	if err := s.store.SaveResetToken(ctx, hashToken(token), cred.ID, s.now().Add(s.resetTTL)); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	if err := s.mailer.SendPasswordReset(ctx, cred.Email, s.resetLink(token)); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if !validPassword(password) {
		return ErrInvalidCredentials
	}
	id, err := s.store.ConsumeResetToken(ctx, hashToken(strings.TrimSpace(token)), s.now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("consume reset token: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdatePasswordHash(ctx, id, hash); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateProfile sets the display name and avatar of the signed-in account.
func (s *Service) UpdateProfile(ctx context.Context, id, name, avatarURL string) (models.Identity, error) {
	if err := s.store.UpdateCredentialProfile(ctx, id, strings.TrimSpace(name), strings.TrimSpace(avatarURL)); err != nil {
		return models.Identity{}, err
	}
	return s.Lookup(ctx, id)
}

// DeleteCredential removes the sign-in account. The user record is untouched.
func (s *Service) DeleteCredential(ctx context.Context, id string) error {
	return s.store.DeleteCredential(ctx, id)
}

func (s *Service) identityFor(ctx context.Context, cred models.Credential) (models.Identity, error) {
	user, err := s.store.GetUser(ctx, cred.ID)
	switch {
	case err == nil:
		return models.NewIdentity(cred, &user), nil
	case errors.Is(err, storage.ErrNotFound):
		return models.NewIdentity(cred, nil), nil
	default:
		return models.Identity{}, fmt.Errorf("load user record: %w", err)
	}
}

func (s *Service) resetLink(token string) string {
	u, err := url.Parse(s.resetURL)
	if err != nil {
		return s.resetURL + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func validPassword(password string) bool {
	return utf8.ValidString(password) && utf8.RuneCountInString(password) >= minPasswordLength
}

func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

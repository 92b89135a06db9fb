package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/foodie-be/internal/models"
	"github.com/hongminglow/foodie-be/internal/storage"
)

const credentialColumns = `id, email, display_name, avatar_url, password_hash, created_at`

// CreateCredential inserts a new sign-in account.
func (s *Store) CreateCredential(ctx context.Context, cred models.Credential) (models.Credential, error) {
	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	const query = `
		INSERT INTO credentials (id, email, display_name, avatar_url, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + credentialColumns
	row := s.pool.QueryRow(ctx, query, cred.ID, cred.Email, cred.DisplayName, cred.AvatarURL, cred.PasswordHash)
	created, err := scanCredential(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Credential{}, storage.ErrAlreadyExists
		}
		return models.Credential{}, err
	}
	return created, nil
}

// FindCredentialByID fetches an account by id.
func (s *Store) FindCredentialByID(ctx context.Context, id string) (models.Credential, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE id = $1`, id)
	return scanCredential(row)
}

// FindCredentialByEmail fetches an account by email, case-insensitively.
func (s *Store) FindCredentialByEmail(ctx context.Context, email string) (models.Credential, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE LOWER(email) = LOWER($1)`, email)
	return scanCredential(row)
}

// UpdateCredentialProfile sets the display name and avatar.
func (s *Store) UpdateCredentialProfile(ctx context.Context, id, displayName, avatarURL string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE credentials SET display_name = $2, avatar_url = $3 WHERE id = $1`, id, displayName, avatarURL)
	if err != nil {
		return err
	}
	return requireAffected(tag)
}

// UpdatePasswordHash replaces the stored password hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE credentials SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	return requireAffected(tag)
}

// DeleteCredential removes the account and any pending reset tokens.
func (s *Store) DeleteCredential(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM credentials WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(tag)
}

// SaveResetToken stores a hashed reset token.
func (s *Store) SaveResetToken(ctx context.Context, tokenHash, credentialID string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO password_resets (token_hash, credential_id, expires_at)
		VALUES ($1, $2, $3)`,
		tokenHash, credentialID, expiresAt,
	)
	return err
}

// ConsumeResetToken deletes the token and returns its owner when still valid.
func (s *Store) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	var credentialID string
	var expiresAt time.Time
	err := s.pool.QueryRow(ctx, `
		DELETE FROM password_resets WHERE token_hash = $1
		RETURNING credential_id, expires_at`,
		tokenHash,
	).Scan(&credentialID, &expiresAt)
	if err != nil {
		return "", notFound(err)
	}
	if !now.Before(expiresAt) {
		return "", storage.ErrNotFound
	}
	return credentialID, nil
}

func scanCredential(row pgx.Row) (models.Credential, error) {
	var cred models.Credential
	if err := row.Scan(&cred.ID, &cred.Email, &cred.DisplayName, &cred.AvatarURL, &cred.PasswordHash, &cred.CreatedAt); err != nil {
		return models.Credential{}, notFound(err)
	}
	return cred, nil
}

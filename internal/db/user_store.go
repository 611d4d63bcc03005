package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rmoran/apptrack/internal/models"
)

// CreateUser persists a new account. Duplicate email or username fails with
// ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, u models.User) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, username, email, password_hash, created_at)
VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt.Unix())
	if isUniqueViolation(err) {
		return fmt.Errorf("create user: %w", ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE "+where, arg)
	var u models.User
	var createdAt int64
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return u, nil
}

// GetUserByID fetches an account by id.
func (s *Store) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

// GetUserByEmail fetches an account by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

// CreateSession records a session token for the user.
func (s *Store) CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)",
		token, userID, expiresAt.Unix())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession resolves a session token to a user id. Expired sessions are
// treated as absent.
func (s *Store) GetSession(ctx context.Context, token string) (string, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT user_id, expires_at FROM sessions WHERE token = ?", token)
	var userID string
	var expiresAt int64
	err := row.Scan(&userID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get session: %w", err)
	}
	if time.Now().Unix() >= expiresAt {
		_, _ = s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
		return "", ErrNotFound
	}
	return userID, nil
}

// DeleteSession revokes a session token. Deleting an absent token is not an
// error.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SaveGmailToken stores the serialized OAuth token for the user, replacing
// any previous one.
func (s *Store) SaveGmailToken(ctx context.Context, userID, tokenJSON string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO gmail_tokens (user_id, token_json, updated_at) VALUES (?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET token_json = excluded.token_json, updated_at = excluded.updated_at`,
		userID, tokenJSON, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save gmail token: %w", err)
	}
	return nil
}

// LoadGmailToken returns the serialized OAuth token for the user.
func (s *Store) LoadGmailToken(ctx context.Context, userID string) (string, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT token_json FROM gmail_tokens WHERE user_id = ?", userID)
	var tokenJSON string
	err := row.Scan(&tokenJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load gmail token: %w", err)
	}
	return tokenJSON, nil
}

// DeleteGmailToken unlinks the user's Gmail account.
func (s *Store) DeleteGmailToken(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM gmail_tokens WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("delete gmail token: %w", err)
	}
	return nil
}

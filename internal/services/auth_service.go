package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rmoran/apptrack/internal/db"
	"github.com/rmoran/apptrack/internal/models"
)

// DefaultSessionTTL is how long a login session stays valid.
const DefaultSessionTTL = 7 * 24 * time.Hour

// AuthServiceImpl implements AuthService over the SQLite store.
type AuthServiceImpl struct {
	store      *db.Store
	sessionTTL time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(store *db.Store) *AuthServiceImpl {
	return &AuthServiceImpl{store: store, sessionTTL: DefaultSessionTTL}
}

// Register creates an account and opens a session for it.
func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password string) (models.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return models.User{}, "", fmt.Errorf("%w: username, email and password are required", ErrInvalidInput)
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return models.User{}, "", ErrEmailTaken
	} else if !errors.Is(err, db.ErrNotFound) {
		return models.User{}, "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			// email was checked above, so the username collided
			return models.User{}, "", ErrUsernameTaken
		}
		return models.User{}, "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	token, err := s.openSession(ctx, user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// Login verifies the password and opens a session. Wrong email and wrong
// password are indistinguishable to the caller.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		return models.User{}, "", ErrInvalidLogin
	}
	if err != nil {
		return models.User{}, "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, "", ErrInvalidLogin
	}

	token, err := s.openSession(ctx, user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// Logout revokes the session token.
func (s *AuthServiceImpl) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return nil
}

// UserFromToken resolves a session token to its user.
func (s *AuthServiceImpl) UserFromToken(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrUnauthenticated
	}
	userID, err := s.store.GetSession(ctx, token)
	if errors.Is(err, db.ErrNotFound) {
		return models.User{}, ErrUnauthenticated
	}
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return models.User{}, ErrUnauthenticated
	}
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return user, nil
}

func (s *AuthServiceImpl) openSession(ctx context.Context, userID string) (string, error) {
	token, err := newSessionToken()
	if err != nil {
		return "", err
	}
	if err := s.store.CreateSession(ctx, token, userID, time.Now().Add(s.sessionTTL)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return token, nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Package auth implements the admin gate: credential verification against a
// bcrypt password hash and opaque session tokens stored server-side.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/airlift/airlift/internal/repository"
)

var (
	// ErrInvalidCredentials is returned when the username or password does
	// not match. Deliberately the same error for both cases.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoSession is returned when a session token is missing, unknown, or
	// expired.
	ErrNoSession = errors.New("no valid session")
)

// tokenBytes is the entropy of a session token before hex encoding.
const tokenBytes = 32

// Service verifies admin credentials and manages session tokens.
type Service struct {
	username     string
	passwordHash []byte
	sessions     repository.SessionRepository
	ttl          time.Duration
	now          func() time.Time
}

// NewService creates an auth service. passwordHash is a bcrypt hash; a nil
// now func defaults to time.Now.
func NewService(username, passwordHash string, sessions repository.SessionRepository, ttl time.Duration, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		username:     username,
		passwordHash: []byte(passwordHash),
		sessions:     sessions,
		ttl:          ttl,
		now:          now,
	}
}

// HashPassword bcrypt-hashes a plaintext password for storage in config.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Login verifies the credentials and mints a new session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if username != s.username {
		// Burn a comparison anyway so a wrong username costs the same as a
		// wrong password.
		_ = bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	now := s.now()
	session := repository.Session{
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("admin logged in", "username", username)
	return token, nil
}

// Validate checks a session token. Expired sessions are treated as absent.
func (s *Service) Validate(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoSession
	}
	session, err := s.sessions.Get(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNoSession
	}
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}
	if !session.ExpiresAt.After(s.now()) {
		return ErrNoSession
	}
	return nil
}

// Logout invalidates a session token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// TTL returns the configured session lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// CleanupLoop deletes expired sessions on an interval until the context is
// cancelled.
func (s *Service) CleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.sessions.DeleteExpired(ctx, s.now())
			if err != nil {
				slog.Error("session cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Debug("expired sessions removed", "count", removed)
			}
		}
	}
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

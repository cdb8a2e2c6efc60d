package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/airlift/airlift/internal/repository/sqlite"
)

var testNow = time.UnixMilli(1_700_000_000_000)

func newTestService(t *testing.T, now func() time.Time) *Service {
	t.Helper()

	db, err := sqlite.Initialize(":memory:")
	if err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	return NewService("admin", hash, sqlite.NewSessionRepository(db), time.Hour, now)
}

func TestLoginAndValidate(t *testing.T) {
	svc := newTestService(t, func() time.Time { return testNow })
	ctx := context.Background()

	token, err := svc.Login(ctx, "admin", "correct horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	if err := svc.Validate(ctx, token); err != nil {
		t.Errorf("Validate rejected fresh token: %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t, func() time.Time { return testNow })
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "admin", "wrong"},
		{"wrong username", "root", "correct horse"},
		{"both wrong", "root", "wrong"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.username, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestValidateRejectsExpiredSession(t *testing.T) {
	current := testNow
	svc := newTestService(t, func() time.Time { return current })
	ctx := context.Background()

	token, err := svc.Login(ctx, "admin", "correct horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	current = testNow.Add(2 * time.Hour) // past the 1h TTL
	if err := svc.Validate(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession for expired token, got %v", err)
	}
}

func TestValidateRejectsMissingToken(t *testing.T) {
	svc := newTestService(t, func() time.Time { return testNow })

	if err := svc.Validate(context.Background(), ""); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession for empty token, got %v", err)
	}
	if err := svc.Validate(context.Background(), "unknown"); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession for unknown token, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	svc := newTestService(t, func() time.Time { return testNow })
	ctx := context.Background()

	token, err := svc.Login(ctx, "admin", "correct horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if err := svc.Validate(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Errorf("token valid after logout: %v", err)
	}

	// Logging out again (or with no token) is not an error.
	if err := svc.Logout(ctx, token); err != nil {
		t.Errorf("repeated Logout failed: %v", err)
	}
	if err := svc.Logout(ctx, ""); err != nil {
		t.Errorf("empty Logout failed: %v", err)
	}
}

func TestTokenFromRequest(t *testing.T) {
	t.Run("bearer header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer tok123")
		if got := TokenFromRequest(r); got != "tok123" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("cookie", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok456"})
		if got := TokenFromRequest(r); got != "tok456" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("header wins over cookie", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer fromheader")
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "fromcookie"})
		if got := TokenFromRequest(r); got != "fromheader" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("absent", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		if got := TokenFromRequest(r); got != "" {
			t.Errorf("got %q, want empty", got)
		}
	})
}

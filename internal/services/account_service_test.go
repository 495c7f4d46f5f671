package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/storage"
)

func newTestStorage(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestAccountRegister(t *testing.T) {
	svc := NewAccountService(newTestStorage(t), time.Hour)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ada", "Ada@Example.com", "s3cret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "ada@example.com" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	if u.PasswordHash == "s3cret" || u.PasswordHash == "" {
		t.Fatal("password stored without hashing")
	}

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		wantErr  error
	}{
		{"duplicate email", "Other", "ada@example.com", "pw", core.ErrConflict},
		{"empty name", "", "new@example.com", "pw", core.ErrEmptyName},
		{"bad email", "Bob", "not-an-email", "pw", core.ErrInvalidEmail},
		{"empty password", "Bob", "bob@example.com", "", core.ErrEmptyPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.userName, tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAccountAuthenticate(t *testing.T) {
	svc := NewAccountService(newTestStorage(t), time.Hour)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "ada@example.com", "s3cret"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, err := svc.Authenticate(ctx, "ada@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if token == "" {
		t.Fatal("empty session token")
	}

	u, err := svc.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if u.Email != "ada@example.com" {
		t.Fatalf("resolved wrong user: %+v", u)
	}

	t.Run("wrong password", func(t *testing.T) {
		if _, err := svc.Authenticate(ctx, "ada@example.com", "wrong"); !errors.Is(err, core.ErrAuth) {
			t.Fatalf("expected ErrAuth, got %v", err)
		}
	})

	// Unknown addresses fail identically to wrong passwords.
	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "ghost@example.com", "whatever")
		if !errors.Is(err, core.ErrAuth) {
			t.Fatalf("expected ErrAuth, got %v", err)
		}
	})

	t.Run("ended session no longer resolves", func(t *testing.T) {
		svc.EndSession(token)
		if _, err := svc.Resolve(ctx, token); !errors.Is(err, core.ErrAuth) {
			t.Fatalf("expected ErrAuth, got %v", err)
		}
	})
}

func TestSessionExpiry(t *testing.T) {
	svc := NewAccountService(newTestStorage(t), time.Nanosecond)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "ada@example.com", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := svc.Authenticate(ctx, "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	time.Sleep(time.Millisecond)

	if _, err := svc.Resolve(ctx, token); !errors.Is(err, core.ErrAuth) {
		t.Fatalf("expected ErrAuth for expired session, got %v", err)
	}
}

func TestSweepExpiredSessions(t *testing.T) {
	svc := NewAccountService(newTestStorage(t), time.Nanosecond)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "ada@example.com", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := svc.Authenticate(ctx, "ada@example.com", "pw"); err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
	}

	time.Sleep(time.Millisecond)

	if removed := svc.SweepExpiredSessions(); removed != 3 {
		t.Fatalf("swept %d sessions, want 3", removed)
	}
	if removed := svc.SweepExpiredSessions(); removed != 0 {
		t.Fatalf("second sweep removed %d sessions, want 0", removed)
	}
}

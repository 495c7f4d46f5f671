package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"spendlog/internal/auth"
	"spendlog/internal/core"
	"spendlog/internal/storage"
)

// session is one live login. Sessions live in memory only and die with the
// process; users simply log in again after a restart.
type session struct {
	userID    int64
	expiresAt time.Time
}

// AccountService handles registration, login and session resolution.
type AccountService struct {
	storage    *storage.SQLiteRepository
	sessionTTL time.Duration

	mu       sync.Mutex
	sessions map[string]session
}

func NewAccountService(storage *storage.SQLiteRepository, sessionTTL time.Duration) *AccountService {
	return &AccountService{
		storage:    storage,
		sessionTTL: sessionTTL,
		sessions:   make(map[string]session),
	}
}

// Register creates a new account after validating the profile fields.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (core.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	u := core.User{Name: name, Email: email}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	if password == "" {
		return core.User{}, core.ErrEmptyPassword
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.storage.CreateUser(ctx, name, email, hash)
	if err != nil {
		return core.User{}, err
	}

	slog.InfoContext(ctx, "Account registered", "user_id", created.ID, "email", created.Email)
	return created, nil
}

// Authenticate verifies the credentials and opens a session, returning its
// opaque token. Unknown emails and wrong passwords both map to ErrAuth so the
// login form cannot be used to probe which addresses exist.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		return "", core.ErrAuth
	}
	if !auth.VerifyPassword(u.PasswordHash, password) {
		return "", core.ErrAuth
	}

	token := auth.NewSessionToken()

	s.mu.Lock()
	s.sessions[token] = session{
		userID:    u.ID,
		expiresAt: time.Now().Add(s.sessionTTL),
	}
	s.mu.Unlock()

	slog.InfoContext(ctx, "Session opened", "user_id", u.ID)
	return token, nil
}

// Resolve maps a session token back to its user. Expired and unknown tokens
// both fail with ErrAuth.
func (s *AccountService) Resolve(ctx context.Context, token string) (core.User, error) {
	s.mu.Lock()
	sess, ok := s.sessions[token]
	if ok && time.Now().After(sess.expiresAt) {
		delete(s.sessions, token)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return core.User{}, core.ErrAuth
	}

	u, err := s.storage.GetUserByID(ctx, sess.userID)
	if err != nil {
		return core.User{}, core.ErrAuth
	}
	return u, nil
}

// EndSession discards the session for the token, if any.
func (s *AccountService) EndSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// SweepExpiredSessions drops every expired session and returns how many were
// removed. Called periodically so abandoned sessions do not accumulate.
func (s *AccountService) SweepExpiredSessions() int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// Package view holds the client-side state of the assistant: who is signed
// in, the chat transcript and the user's display choices.
package view

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type User struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// ErrInvalidToken is returned by a Validator when the server rejects the
// token outright.
var ErrInvalidToken = errors.New("stored token is no longer valid")

// Validator resolves a token to its user. Invalid or expired tokens fail
// with ErrInvalidToken; other errors mean the check could not be made.
type Validator interface {
	Validate(ctx context.Context, token string) (*User, error)
}

// Session is the explicit authentication state handed to every view.
type Session struct {
	mu    sync.RWMutex
	store TokenStore
	token string
	user  *User
}

// Restore rebuilds the session from a persisted token. The token is only
// trusted after the validator accepts it. A rejected token is discarded; when
// the check itself fails the session stays anonymous and the token is kept
// for the next run.
func Restore(ctx context.Context, store TokenStore, v Validator) (*Session, error) {
	s := &Session{store: store}

	token, err := store.Load()
	if err != nil {
		return s, err
	}
	if token == "" {
		return s, nil
	}

	user, err := v.Validate(ctx, token)
	if errors.Is(err, ErrInvalidToken) {
		slog.Debug("stored token rejected", "error", err.Error())
		return s, store.Clear()
	}
	if err != nil {
		return s, err
	}

	s.token = token
	s.user = user
	return s, nil
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Login(token string, user User) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := s.store.Save(token); err != nil {
		return err
	}
	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()
	return nil
}

func (s *Session) Logout() error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
	return s.store.Clear()
}

// FileTokenStore keeps the token in a file readable only by the owner.
type FileTokenStore struct {
	Path string
}

func (f FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (f FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.Path, []byte(token), 0o600)
}

func (f FileTokenStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

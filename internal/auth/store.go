package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

var (
	ErrNoSession = errors.New("no stored session")
	ErrExpired   = errors.New("session expired")
)

// FileStore keeps the current session in a JSON file, readable only by the
// owner.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Login validates the token's shape and stores it as the current session.
func (s *FileStore) Login(token string) (Session, error) {
	session, err := ParseSession(token)
	if err != nil {
		return Session{}, fmt.Errorf("ParseSession: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(session); err != nil {
		return Session{}, err
	}

	slog.Info("[AUTH] Logged in", "user", session.UserId)
	return session, nil
}

func (s *FileStore) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("os.Remove: %w", err)
	}

	slog.Info("[AUTH] Logged out")
	return nil
}

// CheckAuth returns the stored session if it is still valid at now. An
// expired session is removed.
func (s *FileStore) CheckAuth(now time.Time) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("os.ReadFile: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, fmt.Errorf("json.Unmarshal: %w", err)
	}

	if session.Token == "" || session.UserId == "" {
		return Session{}, ErrNoSession
	}

	if session.Expired(now) {
		slog.Info("[AUTH] Stored session expired", "user", session.UserId, "expiresAt", session.ExpiresAt)
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("[AUTH] Failed to remove expired session", "error", err)
		}
		return Session{}, ErrExpired
	}

	return session, nil
}

func (s *FileStore) write(session Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("os.MkdirAll: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("os.WriteFile: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("os.Rename: %w", err)
	}

	return nil
}

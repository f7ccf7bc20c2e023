package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Session is what a logged in caller keeps between runs.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// SessionStore persists the current session. Load returns (nil, nil) when
// nobody is logged in.
type SessionStore interface {
	Load() (*Session, error)
	Save(session *Session) error
	Clear() error
}

// FileSessionStore keeps the session as a JSON file readable only by the
// current user.
type FileSessionStore struct {
	path string
	mu   sync.Mutex
}

// NewFileSessionStore creates a store backed by path.
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

// DefaultSessionPath is the session file under the user's config directory.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ruangpena", "session.json"), nil
}

func defaultSessionStore() *FileSessionStore {
	path, err := DefaultSessionPath()
	if err != nil {
		path = filepath.Join(os.TempDir(), "ruangpena", "session.json")
	}
	return NewFileSessionStore(path)
}

// Load reads the stored session.
func (s *FileSessionStore) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if session.Token == "" {
		return nil, nil
	}
	return &session, nil
}

// Save writes session, replacing any previous one.
func (s *FileSessionStore) Save(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace session: %w", err)
	}
	return nil
}

// Clear removes the stored session. Clearing an empty store is not an error.
func (s *FileSessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Package client is the shared session and HTTP client used by every
// Tindahan frontend (admin dashboard, POS terminal, mobile admin). It owns
// the stored token pair, attaches bearer tokens to outgoing requests, and
// performs coalesced refresh-and-retry on authorization failures.
package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// User is the cached profile stored next to the token pair.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	IsVerified bool   `json:"is_verified"`
}

// Session is the unit of persisted authentication state. It is stored and
// purged as a whole: a partially populated session is never written.
type Session struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenStore abstracts session persistence so each surface can plug in its
// own backend (file on desktop, secure storage on mobile, memory in tests).
type TokenStore interface {
	// Load returns the stored session, or nil when none exists.
	Load() (*Session, error)
	Save(session *Session) error
	Clear() error
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	session *Session
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements TokenStore.
func (s *MemoryStore) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, nil
	}
	copied := *s.session
	return &copied, nil
}

// Save implements TokenStore.
func (s *MemoryStore) Save(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	s.session = &copied
	return nil
}

// Clear implements TokenStore.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}

// FileStore persists the session as JSON in a single file. A file that
// cannot be parsed is treated as absent and removed, so the stored state is
// always either a complete valid session or nothing.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore constructs a FileStore at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load implements TokenStore.
func (s *FileStore) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		_ = os.Remove(s.path)
		return nil, nil
	}
	if session.AccessToken == "" || session.RefreshToken == "" {
		_ = os.Remove(s.path)
		return nil, nil
	}

	return &session, nil
}

// Save implements TokenStore. The file is written to a temp path and renamed
// so a crash mid-write never leaves a torn session behind.
func (s *FileStore) Save(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Clear implements TokenStore.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

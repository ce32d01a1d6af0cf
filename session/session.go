/*
Package session holds the authenticated session: the backend auth token and
the user it belongs to.

Components receive an Accessor instead of reaching for process-wide state,
so tests can swap in a MemoryStore.
*/
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Nexora-Open-Source/smartedu/schema"
	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession is returned when no usable session is stored
var ErrNoSession = errors.New("not logged in")

// Accessor reads and writes the current session
type Accessor interface {
	// Token returns the auth token if a non-expired one is stored
	Token() (string, bool)
	// User returns the logged in user if a session is stored
	User() (*schema.User, bool)
	// Init stores a new session (login)
	Init(token string, user schema.User) error
	// Clear removes the session (logout)
	Clear() error
}

type record struct {
	Token   string      `json:"token"`
	User    schema.User `json:"user"`
	SavedAt time.Time   `json:"saved_at"`
}

// ExpiresAt returns the exp claim of a JWT. The signature is not verified:
// the client only needs to know when to stop sending the token. ok is false
// for opaque tokens or tokens without exp.
func ExpiresAt(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func usable(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	if exp, ok := ExpiresAt(token); ok && !now.Before(exp) {
		return false
	}
	return true
}

// MemoryStore keeps the session in memory
type MemoryStore struct {
	mu  sync.RWMutex
	rec *record
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Token returns the stored token while it is unexpired
func (m *MemoryStore) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.rec == nil || !usable(m.rec.Token, m.now()) {
		return "", false
	}
	return m.rec.Token, true
}

// User returns the signed-in user, even once the token has expired
func (m *MemoryStore) User() (*schema.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.rec == nil {
		return nil, false
	}
	u := m.rec.User
	return &u, true
}

// Init replaces the session with token and user
func (m *MemoryStore) Init(token string, user schema.User) error {
	if token == "" {
		return fmt.Errorf("empty token")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = &record{Token: token, User: user, SavedAt: m.now()}
	return nil
}

// Clear forgets the session
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
	return nil
}

// FileStore persists the session as JSON in a file readable only by the
// current user.
type FileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewFileStore creates a file-backed session store at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path returns the session file location
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) load() (*record, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("corrupt session file %s: %w", f.path, err)
	}
	return &rec, nil
}

// Token returns the token from the session file while it is unexpired
func (f *FileStore) Token() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, err := f.load()
	if err != nil || !usable(rec.Token, f.now()) {
		return "", false
	}
	return rec.Token, true
}

// User returns the user from the session file, even once the token has expired
func (f *FileStore) User() (*schema.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, err := f.load()
	if err != nil {
		return nil, false
	}
	return &rec.User, true
}

// Init writes token and user to the session file with 0600 permissions
func (f *FileStore) Init(token string, user schema.User) error {
	if token == "" {
		return fmt.Errorf("empty token")
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(record{Token: token, User: user, SavedAt: f.now()}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// Clear removes the session file. A missing file is not an error.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"campushub/portal/internal/model"
)

// Session pairs the authenticated Principal with its token pair. Exactly one
// session is live per process.
type Session struct {
	Principal    *model.Principal
	Token        string
	RefreshToken string
}

// fileState is the on-disk shape. The key names mirror the storage keys the
// backend contract was written against: token, refreshToken, currentUser.
type fileState struct {
	Token        string           `json:"token,omitempty"`
	RefreshToken string           `json:"refreshToken,omitempty"`
	CurrentUser  *model.Principal `json:"currentUser,omitempty"`
}

// Store owns the process-wide session. It is seeded from durable storage at
// construction and written back synchronously on every mutation, so a
// restart restores the Principal without a round trip. The cached Principal
// is trusted as-is; it is not revalidated against the backend.
type Store struct {
	mu      sync.Mutex
	path    string
	current fileState
	nextSub int
	subs    map[int]func(*model.Principal)
}

func NewStore(stateDir string) (*Store, error) {
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	s := &Store{
		path: filepath.Join(stateDir, "session.json"),
		subs: make(map[int]func(*model.Principal)),
	}
	if data, err := os.ReadFile(s.path); err == nil {
		var state fileState
		if err := json.Unmarshal(data, &state); err == nil {
			s.current = state
		}
	}
	return s, nil
}

// Get returns the live session. The second return is false when no session
// is established.
func (s *Store) Get() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.Token == "" && s.current.CurrentUser == nil {
		return Session{}, false
	}
	return Session{
		Principal:    copyPrincipal(s.current.CurrentUser),
		Token:        s.current.Token,
		RefreshToken: s.current.RefreshToken,
	}, true
}

// Set establishes a new session. The in-memory session and subscribers are
// always updated; a persistence failure is reported but does not undo the
// in-memory change.
func (s *Store) Set(principal *model.Principal, token, refreshToken string) error {
	s.mu.Lock()
	s.current = fileState{
		Token:        token,
		RefreshToken: refreshToken,
		CurrentUser:  copyPrincipal(principal),
	}
	err := s.persistLocked()
	subs, user := s.snapshotLocked()
	s.mu.Unlock()

	notify(subs, user)
	return err
}

// SetTokens replaces the token pair in place, leaving the Principal
// untouched. Used by the refresh flow.
func (s *Store) SetTokens(token, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Token = token
	s.current.RefreshToken = refreshToken
	return s.persistLocked()
}

// Clear removes the persisted session and emits "no user" to subscribers.
// Clearing an already-empty store is a no-op with the same end state.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.current = fileState{}
	err := os.Remove(s.path)
	if err != nil && os.IsNotExist(err) {
		err = nil
	}
	subs, _ := s.snapshotLocked()
	s.mu.Unlock()

	notify(subs, nil)
	return err
}

// IsAuthenticated reports whether a non-empty access token is present. A
// stale token still reads as authenticated until the backend rejects it.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Token != ""
}

// Current returns the cached Principal, or nil when not authenticated.
func (s *Store) Current() *model.Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyPrincipal(s.current.CurrentUser)
}

// Token implements api.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Token
}

func (s *Store) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.RefreshToken
}

// Subscribe registers a listener on the current-user stream. The listener
// receives the current value immediately and every subsequent change. The
// returned func unregisters it; call it on teardown.
func (s *Store) Subscribe(fn func(*model.Principal)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	user := copyPrincipal(s.current.CurrentUser)
	s.mu.Unlock()

	fn(user)
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (s *Store) snapshotLocked() ([]func(*model.Principal), *model.Principal) {
	subs := make([]func(*model.Principal), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs, copyPrincipal(s.current.CurrentUser)
}

func notify(subs []func(*model.Principal), user *model.Principal) {
	for _, fn := range subs {
		fn(user)
	}
}

func copyPrincipal(p *model.Principal) *model.Principal {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

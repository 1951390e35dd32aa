package devserver

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"campushub/portal/internal/model"
)

var (
	errNotFound       = errors.New("not found")
	errDuplicateEmail = errors.New("duplicate email")
	errBadCredentials = errors.New("bad credentials")
	errSessionInvalid = errors.New("refresh session invalid")
)

type account struct {
	principal    model.Principal
	passwordHash []byte
}

type refreshSession struct {
	userID    string
	expiresAt time.Time
	revoked   bool
}

// memStore is the development backend's entire persistence layer. Everything
// lives in memory so the portal client can run and be tested without
// infrastructure.
type memStore struct {
	mu            sync.Mutex
	accounts      map[string]*account       // by user id
	byEmail       map[string]string         // email -> user id
	sessions      map[string]refreshSession // by token hash
	notifications map[string][]model.Notification
}

func newMemStore() *memStore {
	return &memStore{
		accounts:      make(map[string]*account),
		byEmail:       make(map[string]string),
		sessions:      make(map[string]refreshSession),
		notifications: make(map[string][]model.Notification),
	}
}

func (m *memStore) CreateUser(principal model.Principal, password string) (model.Principal, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.Principal{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[principal.Email]; exists {
		return model.Principal{}, errDuplicateEmail
	}
	if principal.ID == "" {
		principal.ID = uuid.NewString()
	}
	m.accounts[principal.ID] = &account{principal: principal, passwordHash: hash}
	m.byEmail[principal.Email] = principal.ID
	return principal, nil
}

func (m *memStore) Authenticate(email, password string) (model.Principal, error) {
	// Snapshot the account under the lock; bcrypt is too slow to hold it
	// across the comparison, and the fields can change concurrently.
	m.mu.Lock()
	var (
		principal model.Principal
		hash      []byte
	)
	if id, ok := m.byEmail[email]; ok {
		if acct := m.accounts[id]; acct != nil {
			principal = acct.principal
			hash = acct.passwordHash
		}
	}
	m.mu.Unlock()

	if hash == nil {
		return model.Principal{}, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return model.Principal{}, errBadCredentials
	}
	return principal, nil
}

func (m *memStore) GetUser(id string) (model.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[id]
	if !ok {
		return model.Principal{}, errNotFound
	}
	return acct.principal, nil
}

func (m *memStore) UpdateUser(principal model.Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[principal.ID]
	if !ok {
		return errNotFound
	}
	acct.principal = principal
	return nil
}

func (m *memStore) ChangePassword(id, current, next string) error {
	m.mu.Lock()
	acct, ok := m.accounts[id]
	var hash []byte
	if ok {
		hash = acct.passwordHash
	}
	m.mu.Unlock()
	if !ok {
		return errNotFound
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(current)); err != nil {
		return errBadCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	m.mu.Lock()
	acct.passwordHash = hash
	m.mu.Unlock()
	return nil
}

func (m *memStore) CreateRefreshSession(tokenHash, userID string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[tokenHash] = refreshSession{userID: userID, expiresAt: expiresAt}
}

// ConsumeRefreshSession validates and revokes a refresh session in one step;
// refresh tokens are single use.
func (m *memStore) ConsumeRefreshSession(tokenHash string, now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[tokenHash]
	if !ok || sess.revoked || sess.expiresAt.Before(now) {
		return "", errSessionInvalid
	}
	sess.revoked = true
	m.sessions[tokenHash] = sess
	return sess.userID, nil
}

func (m *memStore) AddNotification(n model.Notification) model.Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Priority == "" {
		n.Priority = model.PriorityMedium
	}
	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now

	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[n.Recipient] = append(m.notifications[n.Recipient], n)
	return n
}

func (m *memStore) Notifications(recipient string) []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.notifications[recipient]
	out := make([]model.Notification, len(items))
	copy(out, items)
	return out
}

func (m *memStore) MarkRead(recipient, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.notifications[recipient]
	for i := range items {
		if items[i].ID == id {
			items[i].Read = true
			items[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return errNotFound
}

func (m *memStore) MarkAllRead(recipient string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.notifications[recipient]
	now := time.Now().UTC()
	for i := range items {
		if !items[i].Read {
			items[i].Read = true
			items[i].UpdatedAt = now
		}
	}
}

func (m *memStore) DeleteNotification(recipient, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.notifications[recipient]
	for i := range items {
		if items[i].ID == id {
			m.notifications[recipient] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return errNotFound
}

func (m *memStore) ClearNotifications(recipient string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.notifications, recipient)
}

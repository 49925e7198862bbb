// ABOUTME: Mock CredentialStore implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sync"
	"time"
)

// MockStore is an in-memory CredentialStore implementation for testing.
// A FailWith error can be injected to simulate an unreachable backend.
type MockStore struct {
	mu         sync.RWMutex
	users      map[string]*User    // keyed by email
	projects   map[int64]*Project  // keyed by project ID
	projectIdx map[string]int64    // keyed by name -> project ID
	apiKeys    map[string]*ApiKey  // keyed by hash
	nextUserID int64
	nextProjID int64

	// FailWith, when set, is returned by every store call. Used to test
	// Unavailable error mapping.
	FailWith error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		users:      make(map[string]*User),
		projects:   make(map[int64]*Project),
		projectIdx: make(map[string]int64),
		apiKeys:    make(map[string]*ApiKey),
	}
}

// CreateUser stores a new user and assigns a sequential ID.
func (m *MockStore) CreateUser(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}
	if _, ok := m.users[user.Email]; ok {
		return ErrEmailExists
	}

	m.nextUserID++
	user.ID = m.nextUserID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	// Make a copy to avoid external modification
	u := *user
	m.users[u.Email] = &u
	return nil
}

// GetUserByEmail retrieves a user by email.
func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailWith != nil {
		return nil, m.FailWith
	}
	u, ok := m.users[email]
	if !ok {
		return nil, ErrNotFound
	}

	result := *u
	return &result, nil
}

// UpdateUserPassword replaces a user's password hash.
func (m *MockStore) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}
	for _, u := range m.users {
		if u.ID == id {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return ErrNotFound
}

// CreateProject stores a new project and assigns a sequential ID.
func (m *MockStore) CreateProject(ctx context.Context, project *Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}
	if _, ok := m.projectIdx[project.Name]; ok {
		return ErrProjectExists
	}

	m.nextProjID++
	project.ID = m.nextProjID
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now().UTC()
	}

	p := *project
	m.projects[p.ID] = &p
	m.projectIdx[p.Name] = p.ID
	return nil
}

// GetProject retrieves a project by ID.
func (m *MockStore) GetProject(ctx context.Context, id int64) (*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailWith != nil {
		return nil, m.FailWith
	}
	p, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}

	result := *p
	return &result, nil
}

// GetProjectByName retrieves a project by name.
func (m *MockStore) GetProjectByName(ctx context.Context, name string) (*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailWith != nil {
		return nil, m.FailWith
	}
	id, ok := m.projectIdx[name]
	if !ok {
		return nil, ErrNotFound
	}

	result := *m.projects[id]
	return &result, nil
}

// InsertApiKey stores an API key record, failing on a duplicate hash.
func (m *MockStore) InsertApiKey(ctx context.Context, key *ApiKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}
	if _, ok := m.apiKeys[key.Hash]; ok {
		return ErrDuplicateKey
	}

	if key.IssuedAt.IsZero() {
		key.IssuedAt = time.Now().UTC()
	}
	k := *key
	m.apiKeys[k.Hash] = &k
	return nil
}

// GetApiKeyByHash retrieves an API key record by hash.
func (m *MockStore) GetApiKeyByHash(ctx context.Context, hash string) (*ApiKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailWith != nil {
		return nil, m.FailWith
	}
	k, ok := m.apiKeys[hash]
	if !ok {
		return nil, ErrNotFound
	}

	result := *k
	return &result, nil
}

// DeleteApiKeyByHash removes an API key record.
func (m *MockStore) DeleteApiKeyByHash(ctx context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}
	if _, ok := m.apiKeys[hash]; !ok {
		return ErrNotFound
	}
	delete(m.apiKeys, hash)
	return nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}

// Ensure MockStore implements CredentialStore.
var _ CredentialStore = (*MockStore)(nil)

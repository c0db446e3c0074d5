// Package mock provides mock implementations of store interfaces for testing.
package mock

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/kozaktomas/face-gate/internal/descriptor"
	"github.com/kozaktomas/face-gate/internal/store"
)

// MockUserStore is a mock implementation of store.UserWriter
type MockUserStore struct {
	mu    sync.RWMutex
	users map[int64]*store.EnrolledUser

	// Error injection
	ListError   error
	GetError    error
	CountError  error
	UpsertError error
	SetError    error
	ClearError  error
}

// NewMockUserStore creates a new mock user store
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		users: make(map[int64]*store.EnrolledUser),
	}
}

// AddUser adds a user to the mock store
func (m *MockUserStore) AddUser(user store.EnrolledUser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = &user
}

// RemoveUser deletes a user from the mock store
func (m *MockUserStore) RemoveUser(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

// ListEnrolled returns all users with a descriptor, ordered by id
func (m *MockUserStore) ListEnrolled(ctx context.Context) ([]store.EnrolledUser, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var users []store.EnrolledUser
	for _, u := range m.users {
		if u.Enrolled() {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// GetByEmail retrieves a user by email
func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*store.EnrolledUser, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			user := *u
			return &user, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by id
func (m *MockUserStore) GetByID(ctx context.Context, id int64) (*store.EnrolledUser, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	user := *u
	return &user, nil
}

// CountEnrolled returns the number of users with a descriptor
func (m *MockUserStore) CountEnrolled(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, u := range m.users {
		if u.Enrolled() {
			count++
		}
	}
	return count, nil
}

// Upsert inserts or replaces a user record
func (m *MockUserStore) Upsert(ctx context.Context, user store.EnrolledUser) error {
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = &user
	return nil
}

// SetDescriptor stores a descriptor for a user
func (m *MockUserStore) SetDescriptor(ctx context.Context, userID int64, d descriptor.Descriptor) error {
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[userID]; ok {
		u.Descriptor = d
	}
	return nil
}

// ClearDescriptor removes a user's descriptor
func (m *MockUserStore) ClearDescriptor(ctx context.Context, userID int64) error {
	if m.ClearError != nil {
		return m.ClearError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[userID]; ok {
		u.Descriptor = nil
	}
	return nil
}

package identity

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu    sync.Mutex
	users map[string]User // keyed by user ID
	phone map[string]string
}

// NewMemoryRepository builds an in-memory user store for testing. Increment
// semantics match the Postgres repository: each call advances the counter by
// exactly one even under concurrent use.
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]User), phone: make(map[string]string)}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.phone[user.PhoneNumber]; exists {
		return ErrPhoneTaken
	}
	r.users[user.ID] = user
	r.phone[user.PhoneNumber] = user.ID
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *memoryRepository) FindByPhone(_ context.Context, phone string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.phone[phone]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.users[id], nil
}

func (r *memoryRepository) UpdateProfile(_ context.Context, id string, reg Registration) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	user.FirstName = reg.FirstName
	user.LastName = reg.LastName
	user.Email = reg.Email
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return user, nil
}

func (r *memoryRepository) IncrementTokenVersion(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return 0, ErrNotFound
	}
	user.TokenVersion++
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return user.TokenVersion, nil
}

func (r *memoryRepository) TokenVersion(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return 0, ErrNotFound
	}
	return user.TokenVersion, nil
}

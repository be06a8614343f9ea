package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/moviehub/frontend-session/internal/core/domain"
)

// UserRepository is an in-process user directory. Emails are matched
// case-insensitively and IDs are assigned sequentially.
type UserRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*domain.User
	byEmail map[string]int64
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		nextID:  1,
		byID:    make(map[int64]*domain.User),
		byEmail: make(map[string]int64),
	}
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u.Clone(), nil
}

// Create stores a copy of user under a fresh ID. A non-zero user.ID is kept
// when it is free.
func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeEmail(user.Email)
	if _, exists := r.byEmail[key]; exists {
		return nil, domain.ErrUserExists
	}

	u := user.Clone()
	if _, taken := r.byID[u.ID]; u.ID <= 0 || taken {
		u.ID = r.nextID
	}
	if u.ID >= r.nextID {
		r.nextID = u.ID + 1
	}
	r.byID[u.ID] = u
	r.byEmail[key] = u.ID
	return u.Clone(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

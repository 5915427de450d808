package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/utils"
)

// MemoryUsers is an in-memory user store with the same contract as UserRepo.
type MemoryUsers struct {
	mu     sync.RWMutex
	nextID uint64
	byID   map[uint64]model.User
	emails map[string]uint64
}

// NewMemoryUsers returns an empty user store.
func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{byID: map[uint64]model.User{}, emails: map[string]uint64{}}
}

// Create hashes the password and stores a new user, returning its id.
func (r *MemoryUsers) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.emails[email]; ok {
		return 0, ErrEmailExists
	}
	r.nextID++
	now := time.Now().UTC()
	r.byID[r.nextID] = model.User{ID: r.nextID, Email: email, PasswordHash: hash, Role: role, IsActive: true, CreatedAt: now, UpdatedAt: now}
	r.emails[email] = r.nextID
	return r.nextID, nil
}

// GetByEmail fetches a user by normalized email.
func (r *MemoryUsers) GetByEmail(ctx context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return r.byID[id], nil
}

// GetByID fetches a user by id.
func (r *MemoryUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

// CountByRole returns how many users have role.
func (r *MemoryUsers) CountByRole(ctx context.Context, role string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, u := range r.byID {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

package repository

import (
	"context"
	"sync"
	"time"
)

type memToken struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

// MemoryTokens is the in-memory counterpart of TokenRepo.
type MemoryTokens struct {
	mu     sync.Mutex
	tokens map[string]*memToken
}

func NewMemoryTokens() *MemoryTokens {
	return &MemoryTokens{tokens: map[string]*memToken{}}
}

func (r *MemoryTokens) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[tokenHash] = &memToken{userID: userID, exp: exp}
	return nil
}

func (r *MemoryTokens) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenHash]
	if !ok || t.revoked || !time.Now().Before(t.exp) {
		return 0, ErrNotFound
	}
	return t.userID, nil
}

func (r *MemoryTokens) RevokeByHash(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[tokenHash]; ok {
		t.revoked = true
	}
	return nil
}

func (r *MemoryTokens) RevokeAllForUser(ctx context.Context, userID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.userID == userID {
			t.revoked = true
		}
	}
	return nil
}

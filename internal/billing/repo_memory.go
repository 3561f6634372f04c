package billing

import (
	"context"
	"sync"
)

// MemoryRepo stores subscriptions in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byUser map[string]Subscription
	nextID int64
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byUser: make(map[string]Subscription)}
}

// GetByUser returns the subscription for a user.
func (r *MemoryRepo) GetByUser(ctx context.Context, userID string) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return Subscription{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.byUser[userID]
	if !ok {
		return Subscription{}, ErrNotFound
	}
	return sub, nil
}

// Create stores the subscription, keeping an existing row if one appeared.
func (r *MemoryRepo) Create(ctx context.Context, sub Subscription) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return Subscription{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byUser[sub.UserID]; ok {
		return existing, nil
	}
	r.nextID++
	sub.ID = r.nextID
	r.byUser[sub.UserID] = sub
	return sub, nil
}

// Update persists plan and usage counters.
func (r *MemoryRepo) Update(ctx context.Context, sub Subscription) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byUser[sub.UserID]
	if !ok {
		return ErrNotFound
	}
	sub.ID = existing.ID
	r.byUser[sub.UserID] = sub
	return nil
}

var _ Repo = (*MemoryRepo)(nil)

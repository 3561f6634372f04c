package billing

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a user has no subscription row yet.
var ErrNotFound = errors.New("subscription not found")

// Repo defines persistence operations for subscriptions.
type Repo interface {
	GetByUser(ctx context.Context, userID string) (Subscription, error)
	Create(ctx context.Context, sub Subscription) (Subscription, error)
	Update(ctx context.Context, sub Subscription) error
}

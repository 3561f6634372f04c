package earnings

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no record exists for the lookup.
var ErrNotFound = errors.New("earnings record not found")

// Repo defines persistence operations for earnings records. Records are
// append-only; there is no update path.
type Repo interface {
	Create(ctx context.Context, rec Record) (Record, error)
	// LatestByTicker returns the most recently created record for
	// (owner, ticker), or ErrNotFound.
	LatestByTicker(ctx context.Context, userID, ticker string) (Record, error)
	// ListByUser returns the user's records, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]Record, error)
	// ListByTicker returns the user's records for one ticker, newest first.
	ListByTicker(ctx context.Context, userID, ticker string) ([]Record, error)
}

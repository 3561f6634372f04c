package earnings

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo stores records in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu      sync.RWMutex
	records []Record
	nextID  int64
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Create stores the record with a generated id.
func (r *MemoryRepo) Create(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rec.ID = r.nextID
	rec.Ticker = strings.ToUpper(rec.Ticker)
	r.records = append(r.records, rec)
	return rec, nil
}

// LatestByTicker returns the most recent record for (owner, ticker).
func (r *MemoryRepo) LatestByTicker(ctx context.Context, userID, ticker string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	ticker = strings.ToUpper(ticker)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *Record
	for i := range r.records {
		rec := &r.records[i]
		if rec.UserID != userID || rec.Ticker != ticker {
			continue
		}
		if best == nil || rec.CreatedAt.After(best.CreatedAt) || (rec.CreatedAt.Equal(best.CreatedAt) && rec.ID > best.ID) {
			best = rec
		}
	}
	if best == nil {
		return Record{}, ErrNotFound
	}
	return *best, nil
}

// ListByUser returns the user's records, newest first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Record
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListByTicker returns the user's records for one ticker, newest first.
func (r *MemoryRepo) ListByTicker(ctx context.Context, userID, ticker string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ticker = strings.ToUpper(ticker)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Record
	for _, rec := range r.records {
		if rec.UserID == userID && rec.Ticker == ticker {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)

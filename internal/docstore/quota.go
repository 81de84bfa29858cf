package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// QuotaMedium enforces a total byte budget across all keys of the wrapped
// medium. A rejected write leaves the previous value in place.
type QuotaMedium struct {
	Medium
	limit int64

	mu     sync.Mutex
	sizes  map[string]int64
	total  int64
	primed bool
}

// NewQuotaMedium wraps m with a limit in bytes. A limit <= 0 disables the cap.
func NewQuotaMedium(m Medium, limit int64) *QuotaMedium {
	return &QuotaMedium{Medium: m, limit: limit, sizes: make(map[string]int64)}
}

// Used returns the bytes currently accounted for.
func (q *QuotaMedium) Used(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.prime(ctx); err != nil {
		return 0, err
	}
	return q.total, nil
}

func (q *QuotaMedium) prime(ctx context.Context) error {
	if q.primed {
		return nil
	}
	keys, err := q.Medium.Keys(ctx, "")
	if err != nil {
		return fmt.Errorf("quota scan: %w", err)
	}
	for _, k := range keys {
		raw, err := q.Medium.Get(ctx, k)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return fmt.Errorf("quota scan %s: %w", k, err)
		}
		q.sizes[k] = int64(len(k) + len(raw))
		q.total += q.sizes[k]
	}
	q.primed = true
	return nil
}

// Set implements Medium.
func (q *QuotaMedium) Set(ctx context.Context, key string, value []byte) error {
	if q.limit <= 0 {
		return q.Medium.Set(ctx, key, value)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.prime(ctx); err != nil {
		return err
	}
	size := int64(len(key) + len(value))
	next := q.total - q.sizes[key] + size
	if next > q.limit {
		return fmt.Errorf("%w: %d of %d bytes", ErrQuotaExceeded, next, q.limit)
	}
	if err := q.Medium.Set(ctx, key, value); err != nil {
		return err
	}
	q.total = next
	q.sizes[key] = size
	return nil
}

// Delete implements Medium.
func (q *QuotaMedium) Delete(ctx context.Context, key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.Medium.Delete(ctx, key); err != nil {
		return err
	}
	q.total -= q.sizes[key]
	delete(q.sizes, key)
	return nil
}

package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

const flagTrue = "true"

// WarningFunc receives the first quota failure observed by an Adapter.
type WarningFunc func(key string, err error)

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithWarning installs the one-time quota warning hook.
func WithWarning(fn WarningFunc) Option {
	return func(a *Adapter) { a.warn = fn }
}

// Adapter reads and writes JSON documents on a Medium. Reads never fail:
// absent or corrupt documents fall back to defaults. Write failures are
// logged and returned; the caller's in-memory state is left untouched.
type Adapter struct {
	medium Medium
	logger *zap.Logger
	warn   WarningFunc
	once   sync.Once
}

// NewAdapter wraps medium.
func NewAdapter(medium Medium, opts ...Option) *Adapter {
	a := &Adapter{medium: medium, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Medium returns the underlying medium.
func (a *Adapter) Medium() Medium { return a.medium }

// Load decodes the document stored under key into target. When the document
// is missing or cannot be decoded, fallback is invoked to populate defaults
// and Load reports false.
func (a *Adapter) Load(ctx context.Context, key string, target any, fallback func()) bool {
	raw, err := a.medium.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.logger.Warn("document read failed, using defaults", zap.String("key", key), zap.Error(err))
		}
		if fallback != nil {
			fallback()
		}
		return false
	}
	if err := json.Unmarshal(raw, target); err != nil {
		a.logger.Warn("document corrupt, using defaults", zap.String("key", key), zap.Error(err))
		if fallback != nil {
			fallback()
		}
		return false
	}
	return true
}

// GetOr returns the document stored under key, or def.
func GetOr[T any](ctx context.Context, a *Adapter, key string, def T) T {
	var out T
	if a.Load(ctx, key, &out, func() { out = def }) {
		return out
	}
	return def
}

// Save encodes value as JSON and stores it under key.
func (a *Adapter) Save(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		a.logger.Error("document encode failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := a.medium.Set(ctx, key, raw); err != nil {
		a.logger.Error("document write failed", zap.String("key", key), zap.Int("bytes", len(raw)), zap.Error(err))
		if errors.Is(err, ErrQuotaExceeded) {
			a.once.Do(func() {
				if a.warn != nil {
					a.warn(key, err)
				}
			})
		}
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (a *Adapter) Remove(ctx context.Context, key string) error {
	if err := a.medium.Delete(ctx, key); err != nil {
		a.logger.Error("document delete failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Flag reports whether a boolean flag is set under key.
func (a *Adapter) Flag(ctx context.Context, key string) bool {
	raw, err := a.medium.Get(ctx, key)
	if err != nil {
		return false
	}
	return string(raw) == flagTrue
}

// SetFlag marks key as set.
func (a *Adapter) SetFlag(ctx context.Context, key string) error {
	return a.Save(ctx, key, true)
}

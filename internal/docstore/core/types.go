// Package core defines the abstractions shared by durable document media
// and the adapter layered on top of them.
package core

import (
	"context"
	"errors"
)

// Driver identifies a concrete document medium implementation.
type Driver string

const (
	// DriverMemory represents an in-memory implementation typically used in tests.
	DriverMemory Driver = "memory"
	// DriverFilesystem represents the local filesystem implementation.
	DriverFilesystem Driver = "fs" // local filesystem (default, dev)
	// DriverSQLite represents an embedded sqlite file.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres represents a PostgreSQL server.
	DriverPostgres Driver = "postgres"
	// DriverS3 represents an S3 / MinIO compatible implementation.
	DriverS3 Driver = "s3"
	// DriverRedis represents a Redis server.
	DriverRedis Driver = "redis"
)

// Medium is a flat key-value store holding one serialized document per key.
type Medium interface {
	// Get returns the stored bytes or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists stored keys with the given prefix in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Driver() Driver
	Close() error
}

var (
	// ErrNotFound is returned by Get when no document is stored under the key.
	ErrNotFound = errors.New("docstore: not found")
	// ErrQuotaExceeded is returned when a write would exceed the storage budget.
	ErrQuotaExceeded = errors.New("docstore: quota exceeded")
)

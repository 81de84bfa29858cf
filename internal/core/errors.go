package core

import (
	"errors"
	"fmt"
)

// Expected, recoverable failures surfaced to callers.
var (
	ErrDuplicateTableNumber = errors.New("table number already exists for this event")
	ErrMissingOrganization  = errors.New("organization id required")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrForbidden            = errors.New("forbidden")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrProtectedEntity      = errors.New("entity is protected")
	ErrDuplicateQRCode      = errors.New("qr code already in use")
	ErrInvalidCapacity      = errors.New("capacity must be a positive integer")
	ErrTableUnavailable     = errors.New("table is not available")
	ErrTableEventMismatch   = errors.New("table belongs to another event")
	ErrNoCurrentEvent       = errors.New("no event selected")
	ErrInvalidCount         = errors.New("entry count must not be negative")
	ErrInvalidAmount        = errors.New("amount must be positive")
)

// ErrNotFound is returned when reference validation fails within transactional helpers.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// IsNotFound reports whether err wraps an ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}

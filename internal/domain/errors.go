package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Stores and services wrap these so handlers can map to HTTP status codes
// without leaking infrastructure details.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrStorage       = errors.New("storage failure")
	ErrEncoding      = errors.New("malformed stored document")
	ErrForbidden     = errors.New("forbidden")
	ErrBadRequest    = errors.New("bad request")

	// ErrInvalidKey is returned for collection or key names that cannot be
	// mapped to a storage location. It is a bad request from the caller's side.
	ErrInvalidKey = fmt.Errorf("invalid document key: %w", ErrBadRequest)
)

package storage

import "errors"

var (
	// ErrNotFound means no row matched the key. Callers treat it as a cache miss.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey means the key is already stored. Trades and results are
	// never overwritten.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput means a record lacks its key fields.
	ErrInvalidInput = errors.New("invalid input")
)

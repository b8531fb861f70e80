package storage

import "errors"

// Errors shared by every store implementation.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a record whose key
	// already exists. Trade, equity, and bar stores are append-only,
	// so re-running the same backtest window or re-ingesting a file
	// surfaces as duplicates rather than overwrites.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)

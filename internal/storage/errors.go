package storage

import "errors"

// Sentinel errors shared by every store backend. Callers match them with
// errors.Is regardless of whether the backend is memory, Postgres or
// ClickHouse.
var (
	// ErrNotFound means the requested record is absent.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey means the record's key is already present. Ledger
	// stores are append-only, so an insert never overwrites; a rerun of
	// the same deterministic batch surfaces here.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput means the record failed validation before any
	// backend work was attempted.
	ErrInvalidInput = errors.New("invalid input")
)

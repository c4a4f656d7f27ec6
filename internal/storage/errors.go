package storage

import "errors"

// Errors shared by every store implementation. Callers match them with errors.Is.
var (
	// ErrNotFound: no session, record or event with the requested key.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey: the id is already stored. Token records and operation events are
	// write-once; sessions only change through AttachMetadata.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput: nil value or empty id.
	ErrInvalidInput = errors.New("invalid input")
)

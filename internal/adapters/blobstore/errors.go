package blobstore

import "errors"

// Sentinel kinds for blob store errors.
var (
	// ErrStorage marks a collaborator I/O failure. It is surfaced to the
	// caller untouched; retry policy, if any, belongs to the backend.
	ErrStorage = errors.New("storage operation failed")

	// ErrNotFound marks a missing key.
	ErrNotFound = errors.New("key not found")
)

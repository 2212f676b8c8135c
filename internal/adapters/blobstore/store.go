// Package blobstore defines the blob storage contract used by the staging
// pipeline, with interchangeable local-filesystem and MinIO backends.
package blobstore

import "context"

// Store provides uniform access to a key-addressed blob namespace.
// Keys are slash-separated paths; each staging layer owns its own prefix.
type Store interface {
	// Put writes data under key, overwriting any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the bytes stored under key.
	// Returns ErrNotFound if the key is unknown.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns all keys under prefix, in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}

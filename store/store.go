// Package store provides the key-value persistence layer beneath the record
// store. Keys are /-separated hierarchical paths and values are raw bytes.
// Backends are append/overwrite only: nothing in the directory is ever
// hard-deleted.
package store

import "context"

// Store translates between external storage and the internal key-value namespace.
// Implementations are stateless and perform I/O on each call without caching.
type Store interface {
	// List returns all available keys in the store.
	List(ctx context.Context) ([]string, error)
	// Load retrieves entries for the specified keys, in request order.
	Load(ctx context.Context, keys ...string) ([]Entry, error)
	// Save persists entries in order, creating or overwriting as needed.
	Save(ctx context.Context, entries ...Entry) error
}

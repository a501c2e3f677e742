// Package store defines the byte-level key-value contract the persisted
// session and todo records are written through. Backends live in the
// subpackages.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written or
// has been deleted.
var ErrNotFound = errors.New("record not found")

// Store holds whole records by key. Put overwrites, Delete of an absent
// key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Package storage is the durable per-profile key-value port behind the cart
// and the pending enrollment record. It stands in for the browser's per-origin
// storage: every value lives under a profile scope and a well-known key.
package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: key not found")

type Persister interface {
	Load(ctx context.Context, scope, key string) ([]byte, error)
	Save(ctx context.Context, scope, key string, value []byte) error
	Delete(ctx context.Context, scope, key string) error
}

// Pinger is implemented by persisters backed by a remote server.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Package store persists the web controllers' datatypes and burst
// configurations, keyed by GID, with a memory backend for tests and a
// sqlite backend for real deployments.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/nsiona/tvb-framework/internal/burst"
	"github.com/nsiona/tvb-framework/internal/datatype"
)

// ErrNotFound reports a lookup for a GID the store does not hold.
var ErrNotFound = errors.New("store: not found")

// Store defines persistence for connectivities, surfaces and burst
// configurations. Datatypes are treated as immutable once saved; burst
// configurations are copied on save and load.
type Store interface {
	Init(ctx context.Context) error

	SaveConnectivity(ctx context.Context, c *datatype.Connectivity) error
	Connectivity(ctx context.Context, gid string) (*datatype.Connectivity, error)

	SaveSurface(ctx context.Context, s *datatype.Surface) error
	Surface(ctx context.Context, gid string) (*datatype.Surface, error)

	SaveBurst(ctx context.Context, cfg *burst.Configuration) error
	Burst(ctx context.Context, id string) (*burst.Configuration, error)
	Bursts(ctx context.Context, project string) ([]*burst.Configuration, error)
	DeleteBurst(ctx context.Context, id string) error
}

// NewStore builds the configured backend. An empty kind selects the
// memory store.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// CloseIfSupported closes backends that hold external resources.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}

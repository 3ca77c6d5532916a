package storage

import (
	"context"
	"errors"
	"fmt"

	"helios-hq/relay/pkg/accounts"
)

// ErrNoSnapshot is returned by LoadUsage when the backend holds no persisted
// snapshot yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// BackendError wraps a backend failure with the backend name and the
// operation that failed.
type BackendError struct {
	// Backend is the backend name (e.g. "sqlite").
	Backend string

	// Op is the operation that failed (e.g. "save_snapshot").
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	return fmt.Sprintf("storage backend %s: %s: %v", e.Backend, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// Backend persists account usage snapshots. Implementations must be safe for
// concurrent use.
type Backend interface {
	// SaveSnapshot persists the given account states as the latest snapshot.
	SaveSnapshot(ctx context.Context, states []accounts.State) error

	// LoadUsage returns the usage records of the most recent snapshot,
	// keyed by account id. Returns ErrNoSnapshot when nothing is stored.
	LoadUsage(ctx context.Context) (map[string]accounts.UsageRecord, error)

	// Close releases the backend's resources.
	Close() error
}

package docstore

import (
	"context"
	"time"

	"github.com/matzehuels/pkgdocs/pkg/docs"
)

// Entry is a cached documentation record plus its freshness metadata.
type Entry struct {
	PackageName   string
	Documentation docs.Documentation
	FetchedAt     time.Time
	TTL           time.Duration
}

// Valid reports whether the entry is still fresh at the given instant.
// The boundary is strict: an entry whose TTL elapsed exactly now is stale.
func (e *Entry) Valid(now time.Time) bool {
	return now.Before(e.FetchedAt.Add(e.TTL))
}

// Store is the interface for documentation cache backends.
//
// Implementations exist for different deployments:
//   - sqlite: single-process default, durable local file
//   - redis: shared cache for multi-instance deployments
//   - mongo: document-store deployments
//   - memory: tests and ephemeral runs
//
// All backends compute entry validity at read time from FetchedAt and TTL;
// none rely on engine-side expiry for correctness. Stale entries are only
// removed by explicit invalidation or by overwrite.
type Store interface {
	// Get retrieves the entry for a package.
	// Returns nil, nil when no entry exists. A stored payload that fails
	// to deserialize is deleted as a side effect and reported as absent;
	// corruption self-heals and is never surfaced as an error.
	Get(ctx context.Context, name string) (*Entry, error)

	// Set upserts the entry for a package, stamping FetchedAt with the
	// current time. Overwrites any prior entry atomically.
	Set(ctx context.Context, name string, doc docs.Documentation, ttl time.Duration) error

	// IsValid reports whether a fresh entry exists for a package.
	// It fails closed: any storage error reads as "not cached".
	IsValid(ctx context.Context, name string) bool

	// Invalidate deletes the entry for a package.
	// Deleting an absent entry is a successful no-op.
	Invalidate(ctx context.Context, name string) error

	// InvalidateAll deletes every entry.
	InvalidateAll(ctx context.Context) error

	// Close releases the underlying storage handle. Close is idempotent;
	// closing an already-closed store logs and returns nil.
	Close() error
}

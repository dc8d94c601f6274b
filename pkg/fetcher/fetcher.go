package fetcher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgdocs/pkg/docs"
	"github.com/matzehuels/pkgdocs/pkg/docstore"
	pkgerrors "github.com/matzehuels/pkgdocs/pkg/errors"
	"github.com/matzehuels/pkgdocs/pkg/observability"
)

// DefaultTTL is the cache lifetime applied when the caller does not
// configure one.
const DefaultTTL = time.Hour

// Fetcher retrieves documentation for a package from an upstream registry.
// *registry.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, name string) (*docs.Documentation, error)
}

// Service coordinates cache lookups and registry fetches. Reads prefer the
// cache; a miss, an expired entry, or an explicit bypass goes to the
// registry, and fresh results are written back with the configured TTL.
type Service struct {
	store    docstore.Store
	registry Fetcher
	ttl      time.Duration
	logger   *log.Logger
}

// New builds a Service. A non-positive ttl falls back to DefaultTTL and a
// nil logger falls back to log.Default().
func New(store docstore.Store, registry Fetcher, ttl time.Duration, logger *log.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{store: store, registry: registry, ttl: ttl, logger: logger}
}

// TTL reports the cache lifetime applied to fresh entries.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// GetDocumentation returns documentation for the named package. With
// bypassCache set the cache is not consulted, but the fetched result is
// still written back so later reads benefit.
//
// Cache read failures degrade to a registry fetch. Cache write failures are
// reported but do not fail the call; the documentation was already obtained.
func (s *Service) GetDocumentation(ctx context.Context, name string, bypassCache bool) (*docs.Documentation, error) {
	if err := pkgerrors.ValidatePackageName(name); err != nil {
		return nil, err
	}

	if !bypassCache {
		if doc := s.cached(ctx, name); doc != nil {
			return doc, nil
		}
		observability.Cache().OnCacheMiss(ctx, name)
	}

	doc, err := s.registry.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := s.store.Set(ctx, name, *doc, s.ttl); err != nil {
		observability.Cache().OnCacheWriteError(ctx, name, err)
		s.logger.Warn("failed to cache documentation", "package", name, "error", err)
	} else {
		payload, _ := json.Marshal(doc)
		observability.Cache().OnCacheSet(ctx, name, len(payload))
	}

	return doc, nil
}

// cached returns the documentation when a valid entry exists, nil otherwise.
func (s *Service) cached(ctx context.Context, name string) *docs.Documentation {
	if !s.store.IsValid(ctx, name) {
		return nil
	}

	entry, err := s.store.Get(ctx, name)
	if err != nil {
		s.logger.Warn("cache read failed, falling back to registry", "package", name, "error", err)
		return nil
	}
	if entry == nil {
		// The entry vanished between the validity check and the read.
		return nil
	}

	observability.Cache().OnCacheHit(ctx, name)
	return &entry.Documentation
}

// IsCached reports whether a valid cache entry exists for the package.
func (s *Service) IsCached(ctx context.Context, name string) bool {
	if pkgerrors.ValidatePackageName(name) != nil {
		return false
	}
	return s.store.IsValid(ctx, name)
}

// Invalidate removes the cache entry for a package. Removing a package that
// is not cached is not an error.
func (s *Service) Invalidate(ctx context.Context, name string) error {
	if err := pkgerrors.ValidatePackageName(name); err != nil {
		return err
	}
	return s.store.Invalidate(ctx, name)
}

// InvalidateAll clears the entire cache.
func (s *Service) InvalidateAll(ctx context.Context) error {
	return s.store.InvalidateAll(ctx)
}

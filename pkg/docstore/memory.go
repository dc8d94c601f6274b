package docstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgdocs/pkg/docs"
	pkgerrors "github.com/matzehuels/pkgdocs/pkg/errors"
)

// MemoryStore is an in-memory Store for tests and ephemeral runs.
//
// The documentation payload is kept serialized, exactly as the durable
// backends store it, so the corruption self-heal path behaves the same.
type MemoryStore struct {
	logger *log.Logger

	mu      sync.RWMutex
	entries map[string]*memoryEntry
	closed  bool
}

type memoryEntry struct {
	payload   []byte
	fetchedAt time.Time
	ttl       time.Duration
}

// NewMemory creates an empty in-memory store.
func NewMemory(logger *log.Logger) *MemoryStore {
	if logger == nil {
		logger = log.Default()
	}
	return &MemoryStore{
		logger:  logger,
		entries: make(map[string]*memoryEntry),
	}
}

// Get retrieves the entry for a package, or nil if absent.
func (s *MemoryStore) Get(ctx context.Context, name string) (*Entry, error) {
	s.mu.RLock()
	rec, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var doc docs.Documentation
	if err := json.Unmarshal(rec.payload, &doc); err != nil {
		s.logger.Warn("removing corrupted cache entry", "package", name, "err", err)
		s.mu.Lock()
		delete(s.entries, name)
		s.mu.Unlock()
		return nil, nil
	}

	return &Entry{
		PackageName:   name,
		Documentation: doc,
		FetchedAt:     rec.fetchedAt,
		TTL:           rec.ttl,
	}, nil
}

// Set upserts the entry for a package.
func (s *MemoryStore) Set(ctx context.Context, name string, doc docs.Documentation, ttl time.Duration) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeCache, err, "failed to serialize documentation for %s", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = &memoryEntry{
		payload:   payload,
		fetchedAt: time.Now(),
		ttl:       ttl,
	}
	return nil
}

// IsValid reports whether a fresh entry exists for a package.
func (s *MemoryStore) IsValid(ctx context.Context, name string) bool {
	s.mu.RLock()
	rec, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return time.Now().Before(rec.fetchedAt.Add(rec.ttl))
}

// Invalidate deletes the entry for a package.
func (s *MemoryStore) Invalidate(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, name)
	return nil
}

// InvalidateAll deletes every entry.
func (s *MemoryStore) InvalidateAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*memoryEntry)
	return nil
}

// Close marks the store closed. Closing twice logs and no-ops.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Warn("cache store already closed")
		return nil
	}
	s.closed = true
	s.entries = nil
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

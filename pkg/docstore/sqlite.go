package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"

	"github.com/matzehuels/pkgdocs/pkg/docs"
	pkgerrors "github.com/matzehuels/pkgdocs/pkg/errors"
)

// schema is created idempotently on every open.
// fetched_at and ttl are stored as unix seconds / seconds.
const schema = `
CREATE TABLE IF NOT EXISTS documentation_cache (
	package_name  TEXT PRIMARY KEY,
	documentation TEXT NOT NULL,
	fetched_at    INTEGER NOT NULL,
	ttl           INTEGER NOT NULL
)`

// SQLiteStore is the default Store backend, a single local database file.
type SQLiteStore struct {
	db     *sql.DB
	logger *log.Logger

	mu     sync.Mutex
	closed bool
}

// NewSQLite opens (or creates) the cache database at path.
// The parent directory is created if needed and the schema is applied
// idempotently. Open failures are fatal to service startup and reported
// as CACHE_INIT_ERROR.
func NewSQLite(path string, logger *log.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = log.Default()
	}
	if path == "" {
		return nil, pkgerrors.New(pkgerrors.ErrCodeCacheInit, "cache database path cannot be empty")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.ErrCodeCacheInit, err, "failed to create cache directory %s", dir)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeCacheInit, err, "failed to open cache database %s", path)
	}

	// modernc.org/sqlite serializes writers internally; a single
	// connection avoids SQLITE_BUSY under concurrent request handling.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeCacheInit, err, "failed to open cache database %s", path)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeCacheInit, err, "failed to initialize cache schema")
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Get retrieves the entry for a package, or nil if no row exists.
// A row whose documentation payload fails to unmarshal is deleted and
// reported as absent.
func (s *SQLiteStore) Get(ctx context.Context, name string) (*Entry, error) {
	var (
		payload   string
		fetchedAt int64
		ttl       int64
	)

	row := s.db.QueryRowContext(ctx,
		`SELECT documentation, fetched_at, ttl FROM documentation_cache WHERE package_name = ?`, name)
	if err := row.Scan(&payload, &fetchedAt, &ttl); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeCache, err, "failed to read cache entry for %s", name)
	}

	var doc docs.Documentation
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		s.logger.Warn("removing corrupted cache entry", "package", name, "err", err)
		if _, delErr := s.db.ExecContext(ctx,
			`DELETE FROM documentation_cache WHERE package_name = ?`, name); delErr != nil {
			s.logger.Warn("failed to remove corrupted cache entry", "package", name, "err", delErr)
		}
		return nil, nil
	}

	return &Entry{
		PackageName:   name,
		Documentation: doc,
		FetchedAt:     time.Unix(fetchedAt, 0),
		TTL:           time.Duration(ttl) * time.Second,
	}, nil
}

// Set upserts the entry for a package in a single statement.
func (s *SQLiteStore) Set(ctx context.Context, name string, doc docs.Documentation, ttl time.Duration) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeCache, err, "failed to serialize documentation for %s", name)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documentation_cache (package_name, documentation, fetched_at, ttl)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(package_name) DO UPDATE SET
		   documentation = excluded.documentation,
		   fetched_at    = excluded.fetched_at,
		   ttl           = excluded.ttl`,
		name, string(payload), time.Now().Unix(), int64(ttl.Seconds()))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeCache, err, "failed to write cache entry for %s", name)
	}
	return nil
}

// IsValid reports whether a fresh entry exists for a package.
// Any storage error reads as "not cached".
func (s *SQLiteStore) IsValid(ctx context.Context, name string) bool {
	var fetchedAt, ttl int64

	row := s.db.QueryRowContext(ctx,
		`SELECT fetched_at, ttl FROM documentation_cache WHERE package_name = ?`, name)
	if err := row.Scan(&fetchedAt, &ttl); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("cache validity check failed", "package", name, "err", err)
		}
		return false
	}

	return time.Now().Unix() < fetchedAt+ttl
}

// Invalidate deletes the entry for a package. Absent entries are a no-op.
func (s *SQLiteStore) Invalidate(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM documentation_cache WHERE package_name = ?`, name); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeCache, err, "failed to invalidate cache entry for %s", name)
	}
	return nil
}

// InvalidateAll deletes every entry.
func (s *SQLiteStore) InvalidateAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documentation_cache`); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeCache, err, "failed to clear cache")
	}
	return nil
}

// Close releases the database handle. Closing twice logs and no-ops.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Warn("cache store already closed")
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

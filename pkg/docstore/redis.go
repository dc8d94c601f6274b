package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/pkgdocs/pkg/docs"
	pkgerrors "github.com/matzehuels/pkgdocs/pkg/errors"
)

// redisKeyPrefix namespaces cache entries in a shared Redis instance.
const redisKeyPrefix = "pkgdocs:doc:"

// redisEntry is the stored JSON value for one package.
// Validity is computed at read time from FetchedAt and TTL; the matching
// engine-side expiry is set purely as hygiene, so stale entries do not
// accumulate in a shared instance.
type redisEntry struct {
	Documentation json.RawMessage `json:"documentation"`
	FetchedAt     int64           `json:"fetched_at"`
	TTLSeconds    int64           `json:"ttl"`
}

// RedisStore is a Store backend for multi-instance deployments that share
// one cache.
type RedisStore struct {
	client *redis.Client
	logger *log.Logger

	mu     sync.Mutex
	closed bool
}

// NewRedis connects to the Redis instance at addr and verifies the
// connection. Connection failures are fatal and reported as
// CACHE_INIT_ERROR.
func NewRedis(ctx context.Context, addr string, logger *log.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = log.Default()
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeCacheInit, err, "failed to connect to redis at %s", addr)
	}

	return &RedisStore{client: client, logger: logger}, nil
}

// Get retrieves the entry for a package, or nil if absent.
// An unparsable stored value is deleted and reported as absent.
func (s *RedisStore) Get(ctx context.Context, name string) (*Entry, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+name).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeCache, err, "failed to read cache entry for %s", name)
	}

	var rec redisEntry
	var doc docs.Documentation
	if err := json.Unmarshal(payload, &rec); err == nil {
		err = json.Unmarshal(rec.Documentation, &doc)
	}
	if err != nil {
		s.logger.Warn("removing corrupted cache entry", "package", name, "err", err)
		if delErr := s.client.Del(ctx, redisKeyPrefix+name).Err(); delErr != nil {
			s.logger.Warn("failed to remove corrupted cache entry", "package", name, "err", delErr)
		}
		return nil, nil
	}

	return &Entry{
		PackageName:   name,
		Documentation: doc,
		FetchedAt:     time.Unix(rec.FetchedAt, 0),
		TTL:           time.Duration(rec.TTLSeconds) * time.Second,
	}, nil
}

// Set upserts the entry for a package.
func (s *RedisStore) Set(ctx context.Context, name string, doc docs.Documentation, ttl time.Duration) error {
	docPayload, err := json.Marshal(doc)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeCache, err, "failed to serialize documentation for %s", name)
	}

	payload, err := json.Marshal(redisEntry{
		Documentation: docPayload,
		FetchedAt:     time.Now().Unix(),
		TTLSeconds:    int64(ttl.Seconds()),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeCache, err, "failed to serialize cache entry for %s", name)
	}

	if err := s.client.Set(ctx, redisKeyPrefix+name, payload, ttl).Err(); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeCache, err, "failed to write cache entry for %s", name)
	}
	return nil
}

// IsValid reports whether a fresh entry exists for a package.
func (s *RedisStore) IsValid(ctx context.Context, name string) bool {
	entry, err := s.Get(ctx, name)
	if err != nil {
		s.logger.Warn("cache validity check failed", "package", name, "err", err)
		return false
	}
	return entry != nil && entry.Valid(time.Now())
}

// Invalidate deletes the entry for a package.
func (s *RedisStore) Invalidate(ctx context.Context, name string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+name).Err(); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeCache, err, "failed to invalidate cache entry for %s", name)
	}
	return nil
}

// InvalidateAll deletes every entry in the pkgdocs namespace.
func (s *RedisStore) InvalidateAll(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return pkgerrors.Wrap(pkgerrors.ErrCodeCache, err, "failed to clear cache")
		}
	}
	if err := iter.Err(); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeCache, err, "failed to clear cache")
	}
	return nil
}

// Close releases the Redis connection. Closing twice logs and no-ops.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Warn("cache store already closed")
		return nil
	}
	s.closed = true
	return s.client.Close()
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)

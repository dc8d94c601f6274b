package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/pkgdocs/pkg/docs"
	pkgerrors "github.com/matzehuels/pkgdocs/pkg/errors"
)

const (
	mongoDatabase   = "pkgdocs"
	mongoCollection = "documentation_cache"
)

// mongoEntry mirrors the persisted schema: the documentation stays
// serialized as text so every backend shares one corruption model.
type mongoEntry struct {
	PackageName   string `bson:"_id"`
	Documentation string `bson:"documentation"`
	FetchedAt     int64  `bson:"fetched_at"`
	TTLSeconds    int64  `bson:"ttl"`
}

// MongoStore is a Store backend for document-store deployments.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *log.Logger

	mu     sync.Mutex
	closed bool
}

// NewMongo connects to the MongoDB instance at uri and verifies the
// connection. Connection failures are fatal and reported as
// CACHE_INIT_ERROR.
func NewMongo(ctx context.Context, uri string, logger *log.Logger) (*MongoStore, error) {
	if logger == nil {
		logger = log.Default()
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeCacheInit, err, "failed to connect to mongodb at %s", uri)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeCacheInit, err, "failed to connect to mongodb at %s", uri)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(mongoDatabase).Collection(mongoCollection),
		logger: logger,
	}, nil
}

// Get retrieves the entry for a package, or nil if absent.
// A document whose payload fails to unmarshal is deleted and reported
// as absent.
func (s *MongoStore) Get(ctx context.Context, name string) (*Entry, error) {
	var rec mongoEntry
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeCache, err, "failed to read cache entry for %s", name)
	}

	var doc docs.Documentation
	if err := json.Unmarshal([]byte(rec.Documentation), &doc); err != nil {
		s.logger.Warn("removing corrupted cache entry", "package", name, "err", err)
		if _, delErr := s.coll.DeleteOne(ctx, bson.M{"_id": name}); delErr != nil {
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

// Set upserts the entry for a package in a single replace operation.
func (s *MongoStore) Set(ctx context.Context, name string, doc docs.Documentation, ttl time.Duration) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeCache, err, "failed to serialize documentation for %s", name)
	}

	rec := mongoEntry{
		PackageName:   name,
		Documentation: string(payload),
		FetchedAt:     time.Now().Unix(),
		TTLSeconds:    int64(ttl.Seconds()),
	}

	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": name}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeCache, err, "failed to write cache entry for %s", name)
	}
	return nil
}

// IsValid reports whether a fresh entry exists for a package.
func (s *MongoStore) IsValid(ctx context.Context, name string) bool {
	var rec mongoEntry
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&rec)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			s.logger.Warn("cache validity check failed", "package", name, "err", err)
		}
		return false
	}
	return time.Now().Unix() < rec.FetchedAt+rec.TTLSeconds
}

// Invalidate deletes the entry for a package.
func (s *MongoStore) Invalidate(ctx context.Context, name string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": name}); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeCache, err, "failed to invalidate cache entry for %s", name)
	}
	return nil
}

// InvalidateAll deletes every entry.
func (s *MongoStore) InvalidateAll(ctx context.Context) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeCache, err, "failed to clear cache")
	}
	return nil
}

// Close disconnects from MongoDB. Closing twice logs and no-ops.
func (s *MongoStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Warn("cache store already closed")
		return nil
	}
	s.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)

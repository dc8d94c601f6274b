// Package docstore provides durable, keyed storage for documentation
// records with TTL-based validity.
//
// # Overview
//
// The [Store] interface maps a package name to a cached [Entry]: the
// normalized documentation plus the fetch timestamp and TTL. Expiry is a
// read-time computed property, not a background sweep; entries are only
// destroyed by explicit invalidation or overwritten by a fresh fetch.
//
// # Backends
//
//	store, err := docstore.NewSQLite("~/.cache/pkgdocs/cache.db", logger)  // default
//	store, err := docstore.NewRedis(ctx, "localhost:6379", logger)        // multi-instance
//	store, err := docstore.NewMongo(ctx, "mongodb://localhost", logger)   // document store
//	store := docstore.NewMemory(logger)                                   // tests
//
// A store-open failure at construction is fatal (CACHE_INIT_ERROR): the
// service cannot run without its cache. At steady state every operation
// except Set degrades to a miss or no-op on failure; Set errors are
// returned so a caller can tell that freshly fetched data was not
// persisted.
//
// # Corruption
//
// A stored payload that no longer deserializes is deleted during Get and
// reported as absent. The next fetch repopulates the entry.
package docstore

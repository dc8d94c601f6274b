// Package fetcher coordinates documentation lookups between the cache and
// the upstream registry.
//
// The Service owns the read path policy: consult the cache first, fetch from
// the registry on a miss or expired entry, and write the fresh result back.
// Callers can bypass the cache for a forced refresh; the result is still
// cached afterwards.
//
// The cache is treated as an optimization, never a dependency. A failing
// cache read degrades to a registry fetch, and a failing write is logged and
// reported through observability hooks without failing the lookup.
package fetcher

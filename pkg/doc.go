// Package pkg provides the core libraries for the pkgdocs documentation service.
//
// # Overview
//
// pkgdocs fetches documentation for npm packages from the registry API and
// serves it from a local cache. The pkg directory is organized by concern:
//
//  1. [docs] - The Documentation model shared by every layer
//  2. [docstore] - Cache backends (SQLite, Redis, MongoDB, memory)
//  3. [registry] - The upstream registry HTTP client
//  4. [fetcher] - Cache-or-fetch orchestration
//  5. [config] - Layered configuration (defaults, TOML file, environment)
//  6. [errors] - Structured errors with machine-readable codes
//  7. [observability] - Pluggable cache and HTTP hooks
//  8. [buildinfo] - Version metadata injected at build time
//
// # Architecture
//
// The typical flow of a lookup:
//
//	CLI / HTTP API
//	       ↓
//	  [fetcher] (cache-first policy)
//	   ↓       ↓
//	[docstore] [registry]
//	   ↓       ↓
//	 cache    npms API
//
// # Quick Start
//
// Look up a package with a SQLite-backed cache:
//
//	import (
//	    "context"
//	    "time"
//
//	    "github.com/charmbracelet/log"
//
//	    "github.com/matzehuels/pkgdocs/pkg/docstore"
//	    "github.com/matzehuels/pkgdocs/pkg/fetcher"
//	    "github.com/matzehuels/pkgdocs/pkg/registry"
//	)
//
//	logger := log.Default()
//	store, _ := docstore.NewSQLite("docs.db", logger)
//	defer store.Close()
//
//	client := registry.NewClient(registry.DefaultBaseURL, logger)
//	svc := fetcher.New(store, client, time.Hour, logger)
//
//	doc, _ := svc.GetDocumentation(context.Background(), "express", false)
//	fmt.Println(doc.Description)
//
// # Failure Semantics
//
// The cache is an optimization, not a dependency: read failures degrade to
// registry fetches and write failures are reported without failing the
// lookup. Registry errors carry codes from the [errors] package so callers
// can map them to exit codes or HTTP statuses.
//
// [docs]: https://pkg.go.dev/github.com/matzehuels/pkgdocs/pkg/docs
// [docstore]: https://pkg.go.dev/github.com/matzehuels/pkgdocs/pkg/docstore
// [registry]: https://pkg.go.dev/github.com/matzehuels/pkgdocs/pkg/registry
// [fetcher]: https://pkg.go.dev/github.com/matzehuels/pkgdocs/pkg/fetcher
// [config]: https://pkg.go.dev/github.com/matzehuels/pkgdocs/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/pkgdocs/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/pkgdocs/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/pkgdocs/pkg/buildinfo
package pkg

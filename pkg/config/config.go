// Package config holds runtime settings for the documentation service.
//
// Settings resolve in three layers: built-in defaults, then an optional TOML
// file, then PKGDOCS_* environment variables. Later layers win. Overrides
// that fail to parse are ignored so a typo in the environment never takes
// the service down.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	pkgerrors "github.com/matzehuels/pkgdocs/pkg/errors"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Defaults applied before any file or environment override.
const (
	DefaultCacheTTL        = time.Hour
	DefaultRegistryBaseURL = "https://api.npms.io/v2"
	DefaultListenAddr      = ":8080"
	DefaultRedisAddr       = "localhost:6379"
	DefaultMongoURI        = "mongodb://localhost:27017"
)

// Config is the resolved service configuration. Callers construct one with
// Load (or Default for tests) and pass it down explicitly.
type Config struct {
	// CacheTTL is how long a cached documentation entry stays valid.
	CacheTTL time.Duration `toml:"cache_ttl_seconds"`

	// StoreBackend selects the cache backend: sqlite, redis, mongo or memory.
	StoreBackend string `toml:"store_backend"`

	// DBPath is the SQLite database file, used by the sqlite backend.
	DBPath string `toml:"db_path"`

	// RedisAddr is the host:port of the Redis server, used by the redis backend.
	RedisAddr string `toml:"redis_addr"`

	// MongoURI is the MongoDB connection string, used by the mongo backend.
	MongoURI string `toml:"mongo_uri"`

	// RegistryBaseURL is the upstream registry API root.
	RegistryBaseURL string `toml:"registry_base_url"`

	// ListenAddr is the HTTP server bind address.
	ListenAddr string `toml:"listen_addr"`
}

// Default returns a Config with built-in defaults only.
func Default() Config {
	return Config{
		CacheTTL:        DefaultCacheTTL,
		StoreBackend:    BackendSQLite,
		DBPath:          defaultDBPath(),
		RedisAddr:       DefaultRedisAddr,
		MongoURI:        DefaultMongoURI,
		RegistryBaseURL: DefaultRegistryBaseURL,
		ListenAddr:      DefaultListenAddr,
	}
}

// Load resolves configuration from defaults, an optional TOML file and
// PKGDOCS_* environment variables, in that order. An empty path skips the
// file layer; a named file that does not exist or does not parse is an
// error, since the caller asked for it explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	// The file carries the TTL in seconds; decode into a shadow struct so
	// the integer survives the trip into a time.Duration.
	var file struct {
		CacheTTLSeconds int64  `toml:"cache_ttl_seconds"`
		StoreBackend    string `toml:"store_backend"`
		DBPath          string `toml:"db_path"`
		RedisAddr       string `toml:"redis_addr"`
		MongoURI        string `toml:"mongo_uri"`
		RegistryBaseURL string `toml:"registry_base_url"`
		ListenAddr      string `toml:"listen_addr"`
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeInvalidConfig, err, "failed to read config file %s", path)
	}
	if err := toml.Unmarshal(data, &file); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeInvalidConfig, err, "failed to parse config file %s", path)
	}

	if file.CacheTTLSeconds > 0 {
		cfg.CacheTTL = time.Duration(file.CacheTTLSeconds) * time.Second
	}
	if file.StoreBackend != "" {
		cfg.StoreBackend = file.StoreBackend
	}
	if file.DBPath != "" {
		cfg.DBPath = file.DBPath
	}
	if file.RedisAddr != "" {
		cfg.RedisAddr = file.RedisAddr
	}
	if file.MongoURI != "" {
		cfg.MongoURI = file.MongoURI
	}
	if file.RegistryBaseURL != "" {
		cfg.RegistryBaseURL = file.RegistryBaseURL
	}
	if file.ListenAddr != "" {
		cfg.ListenAddr = file.ListenAddr
	}
	return nil
}

// applyEnv layers PKGDOCS_* variables on top of the current values.
// Unparsable values are skipped, keeping whatever the previous layer set.
func (c *Config) applyEnv() {
	if v := os.Getenv("PKGDOCS_CACHE_TTL_SECONDS"); v != "" {
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil && secs > 0 {
			c.CacheTTL = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("PKGDOCS_STORE_BACKEND"); v != "" {
		c.StoreBackend = v
	}
	if v := os.Getenv("PKGDOCS_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("PKGDOCS_REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("PKGDOCS_MONGO_URI"); v != "" {
		c.MongoURI = v
	}
	if v := os.Getenv("PKGDOCS_REGISTRY_BASE_URL"); v != "" {
		c.RegistryBaseURL = v
	}
	if v := os.Getenv("PKGDOCS_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
}

func (c *Config) normalize() {
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.RegistryBaseURL == "" {
		c.RegistryBaseURL = DefaultRegistryBaseURL
	}
	if c.StoreBackend == "" {
		c.StoreBackend = BackendSQLite
	}
}

// Validate checks settings that have a closed set of legal values.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendSQLite, BackendRedis, BackendMongo, BackendMemory:
	default:
		return pkgerrors.New(pkgerrors.ErrCodeInvalidConfig, "unknown store backend %q", c.StoreBackend)
	}
	if c.StoreBackend == BackendSQLite && c.DBPath == "" {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidConfig, "sqlite backend requires a database path")
	}
	return nil
}

// defaultDBPath places the cache database under the user cache directory,
// falling back to the working directory when none is available.
func defaultDBPath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "pkgdocs", "documentation.db")
	}
	return "documentation.db"
}

package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	// CurrentVersion tags records produced by the current traversal logic.
	// Bump it whenever the way sizes are computed changes.
	CurrentVersion = 1

	// DefaultMaxAge is how long a record may be reused at most.
	DefaultMaxAge = 7 * 24 * time.Hour
)

// SQLite caps bound parameters per statement; stay well under it.
const lookupChunk = 500

// Config describes where the cache lives and when its records expire.
type Config struct {
	Path    string
	Version int
	MaxAge  time.Duration

	// Now is the clock used for stamping and expiry. Defaults to time.Now.
	Now func() time.Time

	Debug bool
}

// Cache stores scan aggregates keyed by absolute directory path. It is an
// optimization only: read failures look like misses and write failures are
// returned but never fatal to a scan.
type Cache struct {
	db      *sql.DB
	version int
	maxAge  time.Duration
	now     func() time.Time
	debug   bool
}

const schema = `
CREATE TABLE IF NOT EXISTS scan_cache (
    path TEXT PRIMARY KEY,
    size_bytes INTEGER NOT NULL,
    file_count INTEGER NOT NULL,
    error_count INTEGER NOT NULL,
    scan_time REAL NOT NULL,
    version INTEGER NOT NULL
);
`

// Open opens (creating if needed) the cache database at cfg.Path.
func Open(cfg Config) (*Cache, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("cache path cannot be empty")
	}
	if cfg.Version == 0 {
		cfg.Version = CurrentVersion
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// Single writer; one connection keeps transactions serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Cache{
		db:      db,
		version: cfg.Version,
		maxAge:  cfg.MaxAge,
		now:     cfg.Now,
		debug:   cfg.Debug,
	}, nil
}

func (c *Cache) Close() error {
	if c != nil && c.db != nil {
		return c.db.Close()
	}
	return nil
}

// DefaultPath returns the cache location under the user's cache directory.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", err
		}
		dir = filepath.Join(home, ".cache")
	}
	return filepath.Join(dir, "foldersize", "cache.db"), nil
}

func (c *Cache) debugf(format string, args ...any) {
	if c.debug {
		log.Printf("debug: "+format, args...)
	}
}

// scan_time is stored as fractional seconds since the epoch.
func toSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

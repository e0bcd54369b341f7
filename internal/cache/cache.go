// Package cache stores rendered markdown keyed by source path and content
// checksum so incremental builds can skip unchanged posts.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS render_cache (
	source     TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL,
	html       BLOB NOT NULL,
	excerpt    BLOB NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Entry is a cached render result.
type Entry struct {
	HTML    []byte
	Excerpt []byte
}

// Cache is a SQLite-backed render cache.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if necessary) the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Checksum returns the cache key checksum for a raw body.
func Checksum(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached entry for source if its checksum still matches.
func (c *Cache) Get(source, checksum string) (*Entry, bool, error) {
	var stored string
	entry := &Entry{}
	err := c.db.QueryRow(
		`SELECT checksum, html, excerpt FROM render_cache WHERE source = ?`, source,
	).Scan(&stored, &entry.HTML, &entry.Excerpt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query cache for %s: %w", source, err)
	}
	if stored != checksum {
		// Stale row; caller re-renders and overwrites via Put.
		return nil, false, nil
	}
	return entry, true, nil
}

// Put stores (or replaces) the render result for source.
func (c *Cache) Put(source, checksum string, html, excerpt []byte) error {
	_, err := c.db.Exec(
		`INSERT INTO render_cache (source, checksum, html, excerpt, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(source) DO UPDATE SET
		   checksum = excluded.checksum,
		   html = excluded.html,
		   excerpt = excluded.excerpt,
		   updated_at = excluded.updated_at`,
		source, checksum, html, excerpt, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("store cache entry for %s: %w", source, err)
	}
	return nil
}

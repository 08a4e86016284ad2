// Package store persists rendering-pass history and a geocode cache in a
// local SQLite database. The store is optional; passes run fine without it.
// Overlay state is never stored, each pass rebuilds its overlay from the
// source files.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// PassRecord is one row of the pass-history table.
type PassRecord struct {
	ID        string
	Address   string
	Matched   bool
	CenterLon float64
	CenterLat float64
	Zoom      int
	Circles   int
	Polygons  int
	Warnings  int
	CreatedAt time.Time
}

// CachedPoint is a geocode cache entry. Matched false caches a negative
// result so repeated lookups of a bad address skip the API.
type CachedPoint struct {
	Lon     float64
	Lat     float64
	Matched bool
}

// SQLiteStore implements the pass history and geocode cache on
// modernc.org/sqlite.
type SQLiteStore struct {
	db      *sql.DB
	ttlDays int
}

// Option configures the store.
type Option func(*SQLiteStore)

// WithGeocodeTTLDays bounds the age of usable geocode cache entries.
// Zero disables expiry.
func WithGeocodeTTLDays(days int) Option {
	return func(s *SQLiteStore) {
		s.ttlDays = days
	}
}

// Open opens (or creates) the database at path, configures WAL mode, and
// runs migrations.
func Open(path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}

	s := &SQLiteStore{db: db}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS render_passes (
	id         TEXT PRIMARY KEY,
	address    TEXT NOT NULL DEFAULT '',
	matched    INTEGER NOT NULL DEFAULT 0,
	center_lon REAL NOT NULL,
	center_lat REAL NOT NULL,
	zoom       INTEGER NOT NULL,
	circles    INTEGER NOT NULL,
	polygons   INTEGER NOT NULL,
	warnings   INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS geocode_cache (
	address_hash TEXT PRIMARY KEY,
	address      TEXT NOT NULL,
	lon          REAL NOT NULL DEFAULT 0,
	lat          REAL NOT NULL DEFAULT 0,
	matched      INTEGER NOT NULL,
	cached_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_render_passes_created_at ON render_passes(created_at);
CREATE INDEX IF NOT EXISTS idx_geocode_cache_cached_at ON geocode_cache(cached_at);
`

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(migration)
	return eris.Wrap(err, "store: migrate")
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordPass inserts one pass-history row, assigning an id when absent.
func (s *SQLiteStore) RecordPass(ctx context.Context, rec PassRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO render_passes
			(id, address, matched, center_lon, center_lat, zoom, circles, polygons, warnings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Address, rec.Matched, rec.CenterLon, rec.CenterLat,
		rec.Zoom, rec.Circles, rec.Polygons, rec.Warnings, rec.CreatedAt,
	)
	if err != nil {
		return "", eris.Wrap(err, "store: insert pass")
	}
	return rec.ID, nil
}

// RecentPasses returns up to limit pass rows, newest first.
func (s *SQLiteStore) RecentPasses(ctx context.Context, limit int) ([]PassRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, address, matched, center_lon, center_lat, zoom, circles, polygons, warnings, created_at
		 FROM render_passes ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "store: query passes")
	}
	defer rows.Close() //nolint:errcheck

	var records []PassRecord
	for rows.Next() {
		var r PassRecord
		if err := rows.Scan(&r.ID, &r.Address, &r.Matched, &r.CenterLon, &r.CenterLat,
			&r.Zoom, &r.Circles, &r.Polygons, &r.Warnings, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan pass row")
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate pass rows")
	}
	return records, nil
}

// CachedGeocode looks up a cached geocode result for an address. The second
// return is false on a cache miss or an expired entry.
func (s *SQLiteStore) CachedGeocode(ctx context.Context, address string) (CachedPoint, bool, error) {
	query := `SELECT lon, lat, matched FROM geocode_cache WHERE address_hash = ?`
	args := []any{addressHash(address)}
	if s.ttlDays > 0 {
		query += fmt.Sprintf(" AND cached_at > datetime('now', '-%d days')", s.ttlDays)
	}

	var p CachedPoint
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&p.Lon, &p.Lat, &p.Matched)
	if err == sql.ErrNoRows {
		return CachedPoint{}, false, nil
	}
	if err != nil {
		return CachedPoint{}, false, eris.Wrap(err, "store: geocode cache lookup")
	}

	zap.L().Debug("geocode cache hit", zap.Bool("matched", p.Matched))
	return p, true, nil
}

// StoreGeocode upserts a geocode result, negative results included.
func (s *SQLiteStore) StoreGeocode(ctx context.Context, address string, p CachedPoint) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO geocode_cache (address_hash, address, lon, lat, matched, cached_at)
		 VALUES (?, ?, ?, ?, ?, datetime('now'))
		 ON CONFLICT (address_hash) DO UPDATE SET
			lon = excluded.lon,
			lat = excluded.lat,
			matched = excluded.matched,
			cached_at = excluded.cached_at`,
		addressHash(address), address, p.Lon, p.Lat, p.Matched,
	)
	return eris.Wrap(err, "store: store geocode")
}

// addressHash normalizes and hashes an address for use as a cache key.
func addressHash(address string) string {
	normalized := strings.Join(strings.Fields(strings.TrimSpace(address)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

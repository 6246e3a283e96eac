package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
)

// SnapshotCache stores compressed chart JSON keyed by birth spec
// fingerprint. Entries written by another engine version are never served.
type SnapshotCache struct {
	db      *DB
	version string
	enc     *zstd.Encoder
	dec     *zstd.Decoder
}

// NewSnapshotCache creates a cache bound to engineVersion.
func NewSnapshotCache(db *DB, engineVersion string) (*SnapshotCache, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &SnapshotCache{db: db, version: engineVersion, enc: enc, dec: dec}, nil
}

// Close releases the codec resources.
func (c *SnapshotCache) Close() error {
	c.dec.Close()
	return c.enc.Close()
}

// Get returns the cached chart JSON for fingerprint.
func (c *SnapshotCache) Get(fingerprint string) ([]byte, bool, error) {
	var payload []byte
	err := c.db.QueryRow(`
		SELECT payload FROM chart_snapshots
		WHERE fingerprint = ? AND engine_version = ?
	`, fingerprint, c.version).Scan(&payload)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("snapshot lookup failed: %w", err)
	}

	raw, err := c.dec.DecodeAll(payload, nil)
	if err != nil {
		// A corrupt row is dropped and treated as a miss.
		_, _ = c.db.Exec("DELETE FROM chart_snapshots WHERE fingerprint = ? AND engine_version = ?", fingerprint, c.version)
		return nil, false, nil
	}
	return raw, true, nil
}

// Put stores chart JSON under fingerprint.
func (c *SnapshotCache) Put(fingerprint string, raw []byte) error {
	payload := c.enc.EncodeAll(raw, nil)
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO chart_snapshots (fingerprint, engine_version, payload, raw_size, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, fingerprint, c.version, payload, len(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// Delete drops the snapshot for fingerprint.
func (c *SnapshotCache) Delete(fingerprint string) error {
	_, err := c.db.Exec("DELETE FROM chart_snapshots WHERE fingerprint = ?", fingerprint)
	return err
}

// PurgeStale removes snapshots produced by other engine versions.
func (c *SnapshotCache) PurgeStale() (int64, error) {
	result, err := c.db.Exec("DELETE FROM chart_snapshots WHERE engine_version != ?", c.version)
	if err != nil {
		return 0, fmt.Errorf("failed to purge snapshots: %w", err)
	}
	return result.RowsAffected()
}

// SnapshotStats summarises the cache contents.
type SnapshotStats struct {
	Entries         int   `json:"entries"`
	RawBytes        int64 `json:"rawBytes"`
	CompressedBytes int64 `json:"compressedBytes"`
}

// Stats reports the size of the current version's snapshots.
func (c *SnapshotCache) Stats() (SnapshotStats, error) {
	var s SnapshotStats
	err := c.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(raw_size), 0), COALESCE(SUM(LENGTH(payload)), 0)
		FROM chart_snapshots WHERE engine_version = ?
	`, c.version).Scan(&s.Entries, &s.RawBytes, &s.CompressedBytes)
	if err != nil {
		return SnapshotStats{}, fmt.Errorf("failed to read snapshot stats: %w", err)
	}
	return s, nil
}

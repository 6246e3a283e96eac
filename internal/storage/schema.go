package storage

import (
	"database/sql"
	"fmt"
)

// Schema version tracking
const currentSchemaVersion = 2

// migrations[v] upgrades a version v database to v+1.
var migrations = map[int]func(*sql.Tx) error{
	1: migrateToV2,
}

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createCasesTable(tx); err != nil {
			return err
		}
		if err := createSnapshotsTable(tx); err != nil {
			return err
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Info("Database schema initialized", "version", currentSchemaVersion)
		return nil
	})
}

// runMigrations runs any pending schema migrations
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		db.logger.Debug("Database schema is up to date", "version", version)
		return nil
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	db.logger.Info("Running database migrations",
		"from_version", version,
		"to_version", currentSchemaVersion,
	)

	for v := version; v < currentSchemaVersion; v++ {
		migrate, ok := migrations[v]
		if !ok {
			return fmt.Errorf("no migration from schema version %d", v)
		}
		next := v + 1
		if err := db.WithTx(func(tx *sql.Tx) error {
			if err := migrate(tx); err != nil {
				return err
			}
			return setSchemaVersion(tx, next)
		}); err != nil {
			return fmt.Errorf("migration to version %d failed: %w", next, err)
		}
	}
	return nil
}

// getSchemaVersion gets the current schema version
func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

// setSchemaVersion sets the schema version
func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createCasesTable creates the saved case library.
// birth_spec_json holds the canonical encoding of chart.BirthSpec.
func createCasesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS cases (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			birth_spec_json TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			province TEXT,
			city TEXT,
			notes TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create cases table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_cases_name ON cases(name)",
		"CREATE INDEX IF NOT EXISTS idx_cases_created_at ON cases(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_cases_fingerprint ON cases(fingerprint)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// createSnapshotsTable creates the chart snapshot cache. Payloads are
// zstd-compressed deterministic chart JSON keyed by birth spec fingerprint
// and the engine version that produced them.
func createSnapshotsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS chart_snapshots (
			fingerprint TEXT NOT NULL,
			engine_version TEXT NOT NULL,
			payload BLOB NOT NULL,
			raw_size INTEGER NOT NULL,
			created_at TEXT NOT NULL,

			PRIMARY KEY (fingerprint, engine_version)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create chart_snapshots table: %w", err)
	}
	return nil
}

// migrateToV2 adds the snapshot cache, which version 1 databases lack.
func migrateToV2(tx *sql.Tx) error {
	return createSnapshotsTable(tx)
}

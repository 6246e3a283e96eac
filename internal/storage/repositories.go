package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// CaseRecord is one row of the cases table.
type CaseRecord struct {
	ID            string
	Name          string
	BirthSpecJSON string
	Fingerprint   string
	Province      *string
	City          *string
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CaseFilter narrows a case listing. Query matches name or notes.
type CaseFilter struct {
	Query  string
	Limit  int
	Offset int
}

// CaseRepository provides CRUD operations for the cases table
type CaseRepository struct {
	db *DB
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *DB) *CaseRepository {
	return &CaseRepository{db: db}
}

// Create inserts a new case
func (r *CaseRepository) Create(rec *CaseRecord) error {
	_, err := r.db.Exec(`
		INSERT INTO cases (
			id, name, birth_spec_json, fingerprint, province, city, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.Name,
		rec.BirthSpecJSON,
		rec.Fingerprint,
		rec.Province,
		rec.City,
		rec.Notes,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

// Get retrieves a case by id. It returns nil, nil when no row matches.
func (r *CaseRepository) Get(id string) (*CaseRecord, error) {
	row := r.db.QueryRow(`
		SELECT id, name, birth_spec_json, fingerprint, province, city, notes, created_at, updated_at
		FROM cases WHERE id = ?
	`, id)
	rec, err := scanCase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// Update rewrites the mutable columns of a case.
func (r *CaseRepository) Update(rec *CaseRecord) error {
	result, err := r.db.Exec(`
		UPDATE cases SET
			name = ?,
			birth_spec_json = ?,
			fingerprint = ?,
			province = ?,
			city = ?,
			notes = ?,
			updated_at = ?
		WHERE id = ?
	`,
		rec.Name,
		rec.BirthSpecJSON,
		rec.Fingerprint,
		rec.Province,
		rec.City,
		rec.Notes,
		rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update case: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a case. It reports whether a row was deleted.
func (r *CaseRepository) Delete(id string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM cases WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete case: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// List returns cases newest first, plus the total matching count.
func (r *CaseRepository) List(filter CaseFilter) ([]*CaseRecord, int, error) {
	var where string
	var args []interface{}
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = "WHERE name LIKE ? OR notes LIKE ?"
		pattern := "%" + q + "%"
		args = append(args, pattern, pattern)
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM cases "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count cases: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	rows, err := r.db.Query(`
		SELECT id, name, birth_spec_json, fingerprint, province, city, notes, created_at, updated_at
		FROM cases `+where+`
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, append(args, limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*CaseRecord
	for rows.Next() {
		rec, err := scanCase(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating cases: %w", err)
	}
	return out, total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCase(row rowScanner) (*CaseRecord, error) {
	var rec CaseRecord
	var createdAt, updatedAt string
	err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.BirthSpecJSON,
		&rec.Fingerprint,
		&rec.Province,
		&rec.City,
		&rec.Notes,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan case: %w", err)
	}

	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at format: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at format: %w", err)
	}
	return &rec, nil
}

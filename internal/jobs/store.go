package jobs

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// jobColumns is the column order every query selects and scanJob reads.
const jobColumns = `id, type, label, scope, status, progress, matches,
	created_at, started_at, completed_at, error, result`

// Store persists jobs in jobs.db, separate from the case database so long
// scans never contend with case writes. Timestamps are unix milliseconds.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
}

// OpenStore opens or creates the jobs database in dataDir.
func OpenStore(dataDir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "jobs.db")
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open jobs database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{conn: conn, logger: logger}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize jobs schema: %w", err)
	}
	logger.Debug("Opened jobs database", "path", dbPath)
	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return err
	}
	var current int
	if err := s.conn.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			scope TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'queued',
			progress INTEGER NOT NULL DEFAULT 0,
			matches INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			started_at INTEGER,
			completed_at INTEGER,
			error TEXT NOT NULL DEFAULT '',
			result TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_jobs_status_created ON jobs(status, created_at);
		INSERT INTO schema_version (version) VALUES (1);
	`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// CreateJob inserts a new job.
func (s *Store) CreateJob(job *Job) error {
	_, err := s.conn.Exec(`INSERT INTO jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Type, job.Label, job.Scope, job.Status, job.Progress, job.Matches,
		job.CreatedAt.UnixMilli(), millis(job.StartedAt), millis(job.CompletedAt),
		job.Error, job.Result,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	s.logger.Debug("Created job", "jobId", job.ID, "type", job.Type, "label", job.Label)
	return nil
}

// GetJob returns the job with id, or nil when there is none.
func (s *Store) GetJob(id string) (*Job, error) {
	job, err := scanJob(s.conn.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return job, err
}

// UpdateJob writes the mutable fields of a job.
func (s *Store) UpdateJob(job *Job) error {
	res, err := s.conn.Exec(`
		UPDATE jobs SET status = ?, progress = ?, matches = ?, started_at = ?,
			completed_at = ?, error = ?, result = ?
		WHERE id = ?`,
		job.Status, job.Progress, job.Matches, millis(job.StartedAt),
		millis(job.CompletedAt), job.Error, job.Result, job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("job not found: %s", job.ID)
	}
	return nil
}

// ListJobs returns one page of jobs matching opts, newest first. The limit
// defaults to 20 and is capped at 100.
func (s *Store) ListJobs(opts ListJobsOptions) (*ListJobsResponse, error) {
	var where []string
	var args []interface{}
	if len(opts.Status) > 0 {
		where = append(where, inClause("status", len(opts.Status)))
		for _, st := range opts.Status {
			args = append(args, st)
		}
	}
	if len(opts.Type) > 0 {
		where = append(where, inClause("type", len(opts.Type)))
		for _, t := range opts.Type {
			args = append(args, t)
		}
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM jobs`+cond, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	limit = min(limit, 100)

	jobs, err := s.selectJobs(`SELECT `+jobColumns+` FROM jobs`+cond+
		` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, append(args, limit, opts.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	resp := &ListJobsResponse{Jobs: make([]JobSummary, 0, len(jobs)), TotalCount: total}
	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, job.ToSummary())
	}
	return resp, nil
}

// GetPendingJobs returns queued jobs, oldest first.
func (s *Store) GetPendingJobs() ([]*Job, error) {
	jobs, err := s.selectJobs(`SELECT `+jobColumns+` FROM jobs WHERE status = ? ORDER BY created_at, id`, JobQueued)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending jobs: %w", err)
	}
	return jobs, nil
}

// CleanupOldJobs removes finished jobs that completed before the retention
// window.
func (s *Store) CleanupOldJobs(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).UnixMilli()
	res, err := s.conn.Exec(`DELETE FROM jobs WHERE `+inClause("status", 3)+` AND completed_at < ?`,
		JobCompleted, JobFailed, JobCancelled, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old jobs: %w", err)
	}
	return res.RowsAffected()
}

// ClaimJob moves a queued job to running. It reports false when the job is
// no longer queued, so exactly one worker runs each job and a cancellation
// that lands first wins.
func (s *Store) ClaimJob(job *Job) (bool, error) {
	job.MarkStarted()
	return s.leaveQueue(job, "started_at", job.StartedAt)
}

// CancelQueued marks a still-queued job cancelled. It reports false when the
// job has left the queued state.
func (s *Store) CancelQueued(job *Job) (bool, error) {
	job.MarkCancelled()
	return s.leaveQueue(job, "completed_at", job.CompletedAt)
}

// leaveQueue moves a job out of queued only if it is still queued.
func (s *Store) leaveQueue(job *Job, stampColumn string, stamp *time.Time) (bool, error) {
	res, err := s.conn.Exec(`UPDATE jobs SET status = ?, `+stampColumn+` = ? WHERE id = ? AND status = ?`,
		job.Status, millis(stamp), job.ID, JobQueued)
	if err != nil {
		return false, fmt.Errorf("failed to move job %s to %s: %w", job.ID, job.Status, err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (s *Store) selectJobs(query string, args ...interface{}) ([]*Job, error) {
	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*Job, error) {
	var job Job
	var createdAt int64
	var startedAt, completedAt sql.NullInt64

	err := row.Scan(&job.ID, &job.Type, &job.Label, &job.Scope, &job.Status, &job.Progress,
		&job.Matches, &createdAt, &startedAt, &completedAt, &job.Error, &job.Result)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job row: %w", err)
	}

	job.CreatedAt = time.UnixMilli(createdAt).UTC()
	job.StartedAt = fromMillis(startedAt)
	job.CompletedAt = fromMillis(completedAt)
	return &job, nil
}

func inClause(column string, n int) string {
	return column + " IN (" + strings.TrimSuffix(strings.Repeat("?,", n), ",") + ")"
}

func millis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.UnixMilli(n.Int64).UTC()
	return &t
}

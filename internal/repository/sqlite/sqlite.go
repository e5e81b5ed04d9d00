package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	_ "modernc.org/sqlite"

	"bimsight/internal/domain"
	"bimsight/internal/repository"
)

const memoryPath = ":memory:"

// fixed width so stored timestamps sort lexically
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id              TEXT PRIMARY KEY,
	created_at      TEXT NOT NULL,
	last_capture_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
	id              TEXT PRIMARY KEY,
	session_id      TEXT NOT NULL,
	score           REAL NOT NULL,
	status          TEXT NOT NULL,
	detection_count INTEGER NOT NULL DEFAULT 0,
	alert_count     INTEGER NOT NULL DEFAULT 0,
	detections      TEXT,
	captured_at     TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_samples_session ON samples(session_id, captured_at);
`

// Repository implements repository.Repository using SQLite
type Repository struct {
	db         *sql.DB
	insertStmt *sql.Stmt
}

var _ repository.Repository = (*Repository)(nil)

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if dbPath == memoryPath {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		return nil, multierr.Append(errors.Wrap(err, "failed to migrate database"), db.Close())
	}

	repo.insertStmt, err = db.Prepare(`
		INSERT INTO samples (id, session_id, score, status, detection_count, alert_count, detections, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, multierr.Append(errors.Wrap(err, "failed to prepare insert"), db.Close())
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", "PRAGMA foreign_keys=ON"} {
		if _, err := r.db.Exec(pragma); err != nil {
			return errors.Wrap(err, pragma)
		}
	}
	_, err := r.db.Exec(schema)
	return err
}

// SaveSample stores a captured sample, registering its session on first use
func (r *Repository) SaveSample(ctx context.Context, sample *domain.Sample) error {
	args, err := sampleInsertArgs(sample)
	if err != nil {
		return err
	}
	captured := formatTime(sample.CapturedAt)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, last_capture_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET last_capture_at = excluded.last_capture_at
	`, sample.SessionID, captured, captured)
	if err != nil {
		return errors.Wrap(err, "failed to upsert session")
	}

	if _, err := tx.StmtContext(ctx, r.insertStmt).ExecContext(ctx, args...); err != nil {
		return errors.Wrap(err, "failed to insert sample")
	}

	return errors.Wrap(tx.Commit(), "failed to commit sample")
}

// GetSample retrieves a single sample by ID
func (r *Repository) GetSample(ctx context.Context, id string) (*domain.Sample, error) {
	var row sampleRow
	err := r.db.QueryRowContext(ctx,
		`SELECT `+sampleColumns+` FROM samples WHERE id = ?`, id,
	).Scan(row.scanArgs()...)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(repository.ErrNotFound, "sample %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query sample")
	}
	return row.toDomain()
}

// ListSamples returns the samples of a session, oldest first. A limit <= 0 returns all.
func (r *Repository) ListSamples(ctx context.Context, sessionID string, limit int) ([]*domain.Sample, error) {
	query := `SELECT ` + sampleColumns + ` FROM samples WHERE session_id = ? ORDER BY captured_at, rowid`
	args := []interface{}{sessionID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query samples")
	}
	defer rows.Close()

	samples := []*domain.Sample{}
	for rows.Next() {
		var row sampleRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, errors.Wrap(err, "failed to scan sample")
		}
		sample, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating samples")
	}
	return samples, nil
}

// ListSessions returns every session with captured samples, most recent capture first
func (r *Repository) ListSessions(ctx context.Context) ([]domain.SessionInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.created_at, s.last_capture_at, COUNT(p.id)
		FROM sessions s LEFT JOIN samples p ON p.session_id = s.id
		GROUP BY s.id
		ORDER BY s.last_capture_at DESC, s.id
	`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query sessions")
	}
	defer rows.Close()

	sessions := []domain.SessionInfo{}
	for rows.Next() {
		var (
			info             domain.SessionInfo
			created, lastCap string
		)
		if err := rows.Scan(&info.ID, &created, &lastCap, &info.Samples); err != nil {
			return nil, errors.Wrap(err, "failed to scan session")
		}
		if info.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if info.LastCaptureAt, err = parseTime(lastCap); err != nil {
			return nil, err
		}
		sessions = append(sessions, info)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating sessions")
	}
	return sessions, nil
}

// Summary aggregates the captured scores of a session.
// A session without samples yields a zero summary, not an error.
func (r *Repository) Summary(ctx context.Context, sessionID string) (*domain.Summary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT score FROM samples WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query scores")
	}
	defer rows.Close()

	var scores stats.Float64Data
	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return nil, errors.Wrap(err, "failed to scan score")
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating scores")
	}

	summary := &domain.Summary{SessionID: sessionID, Samples: scores.Len()}
	if summary.Samples == 0 {
		return summary, nil
	}
	summary.Mean, _ = scores.Mean()
	summary.Min, _ = scores.Min()
	summary.Max, _ = scores.Max()
	summary.StdDev, _ = scores.StandardDeviation()
	return summary, nil
}

// DeleteSession removes a session and its samples, returning the number of samples removed
func (r *Repository) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM samples WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete samples")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count deleted samples")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return 0, errors.Wrap(err, "failed to delete session")
	}

	return n, errors.Wrap(tx.Commit(), "failed to commit delete")
}

// Close releases the prepared statement and the database
func (r *Repository) Close() error {
	return multierr.Combine(r.insertStmt.Close(), r.db.Close())
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid timestamp %q", s)
	}
	return t, nil
}

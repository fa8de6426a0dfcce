package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	apperrors "tradestat/internal/errors"
)

// SQLiteStore implements RunStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based run store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		sequence INTEGER NOT NULL,
		published_at DATETIME NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		trade_count INTEGER NOT NULL,
		fault_count INTEGER NOT NULL,
		net_pips REAL NOT NULL,
		net_vpips REAL NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_published ON runs(published_at);
	CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun stores a run, replacing any run with the same ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	payload, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, sequence, published_at, source, trade_count, fault_count, net_pips, net_vpips, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID.String(), int64(run.Sequence), run.PublishedAt.UTC(), run.Source, run.TradeCount, run.FaultCount, run.NetPips, run.NetVPips, string(payload))
	if err != nil {
		return fmt.Errorf("failed to save run: %w: %w", apperrors.ErrDatabaseError, err)
	}

	return nil
}

const runColumns = "id, sequence, published_at, source, trade_count, fault_count, net_pips, net_vpips"

// GetRun retrieves a single run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+", payload FROM runs WHERE id = ?", id.String())
	run, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// LatestRun retrieves the most recently published run.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+", payload FROM runs ORDER BY published_at DESC, rowid DESC LIMIT 1")
	run, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns run summaries, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]RunSummary, error) {
	query := "SELECT " + runColumns + " FROM runs WHERE 1=1"
	args := []interface{}{}

	if !filter.Since.IsZero() {
		query += " AND published_at >= ?"
		args = append(args, filter.Since.UTC())
	}
	if filter.Source != "" {
		query += " AND source = ?"
		args = append(args, filter.Source)
	}

	query += " ORDER BY published_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	summaries := make([]RunSummary, 0)
	for rows.Next() {
		var sum RunSummary
		if err := scanSummary(rows, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		summaries = append(summaries, sum)
	}

	return summaries, rows.Err()
}

// Prune deletes all but the keep most recent runs and returns how many were removed.
// A non-positive keep leaves the history untouched.
func (s *SQLiteStore) Prune(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY published_at DESC, rowid DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}

	n, _ := result.RowsAffected()
	return int(n), nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSummary(row scanner, sum *RunSummary, extra ...interface{}) error {
	var id string
	var seq int64
	dest := append([]interface{}{&id, &seq, &sum.PublishedAt, &sum.Source, &sum.TradeCount, &sum.FaultCount, &sum.NetPips, &sum.NetVPips}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return apperrors.NewDataError("run", id, "invalid run id", err)
	}
	sum.ID = parsed
	sum.Sequence = uint64(seq)
	return nil
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var payload string

	if err := scanSummary(row, &run.RunSummary, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrSnapshotNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(payload), &run.Report); err != nil {
		return nil, apperrors.NewDataError("run", run.ID.String(), "corrupt payload", err)
	}
	return &run, nil
}

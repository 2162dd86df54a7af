package plan

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/amatiych/llm-work/internal/observability"
)

// SQLiteStore keeps plans in a single SQLite table.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string, logger zerolog.Logger) (*SQLiteStore, error) {
	observability.EnsureRegistered()

	if path == "" {
		return nil, errors.New("database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for concurrent readers during replay
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.logger.Debug().Str("path", path).Msg("Plan store opened")
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS plans (
			name TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			fund_id TEXT NOT NULL,
			title TEXT NOT NULL,
			steps INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			body TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_plans_fund ON plans(fund_id);
	`)
	return err
}

// Save stores p under name.
func (s *SQLiteStore) Save(ctx context.Context, name string, p *Plan) (err error) {
	defer func() { observability.RecordPlanStoreOp(BackendSQLite, "save", err == nil) }()

	named, err := p.WithName(name)
	if err != nil {
		return err
	}
	body, err := json.Marshal(named)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO plans (name, id, fund_id, title, steps, created_at, body) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name, named.ID(), named.FundID(), named.Title(), named.Len(), named.CreatedAt().UnixMilli(), string(body),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: %s", ErrExists, name)
		}
		return fmt.Errorf("failed to save plan: %w", err)
	}

	s.logger.Info().Str("plan", name).Str("fund_id", named.FundID()).Int("steps", named.Len()).Msg("Plan saved")
	return nil
}

// Load returns the plan stored under name.
func (s *SQLiteStore) Load(ctx context.Context, name string) (p *Plan, err error) {
	defer func() { observability.RecordPlanStoreOp(BackendSQLite, "load", err == nil) }()

	if err := ValidateName(name); err != nil {
		return nil, err
	}

	var body string
	err = s.db.QueryRowContext(ctx, `SELECT body FROM plans WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	p = &Plan{}
	if err := json.Unmarshal([]byte(body), p); err != nil {
		return nil, fmt.Errorf("failed to decode plan %s: %w", name, err)
	}
	return p, nil
}

// Delete removes the plan stored under name.
func (s *SQLiteStore) Delete(ctx context.Context, name string) (err error) {
	defer func() { observability.RecordPlanStoreOp(BackendSQLite, "delete", err == nil) }()

	if err := ValidateName(name); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	s.logger.Info().Str("plan", name).Msg("Plan deleted")
	return nil
}

// List returns summaries ordered by name.
func (s *SQLiteStore) List(ctx context.Context) (out []Summary, err error) {
	defer func() { observability.RecordPlanStoreOp(BackendSQLite, "list", err == nil) }()

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, id, fund_id, title, steps, created_at FROM plans ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	out = []Summary{}
	for rows.Next() {
		var sum Summary
		var created int64
		if err := rows.Scan(&sum.Name, &sum.ID, &sum.FundID, &sum.Title, &sum.Steps, &created); err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		sum.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "embed"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver
	"github.com/user/hundred-acre-realm/config"
	"github.com/user/hundred-acre-realm/internal/interfaces"
	"github.com/user/hundred-acre-realm/internal/types"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaScript string

// ErrNotFound is returned when a session has never been indexed
var ErrNotFound = errors.New("session not found")

// Index is the sqlite table of processed sessions
type Index struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Ensure Index satisfies the interfaces.SessionIndex interface
var _ interfaces.SessionIndex = (*Index)(nil)

// Open connects to the index database and creates the schema
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Create directory if it doesn't exist
	if cfg.DSN != ":memory:" && !strings.HasPrefix(cfg.DSN, "file:") {
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session index: %w", err)
	}

	// A single connection keeps in-memory databases alive and serializes writes
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(ctx, schemaScript); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise session index schema: %w", err)
	}

	logger.Info("Opened session index", zap.String("driver", cfg.Driver), zap.String("dsn", cfg.DSN))

	return &Index{db: db, logger: logger}, nil
}

// Close closes the database
func (i *Index) Close() error {
	return i.db.Close()
}

// Record inserts or replaces the summary of a session
func (i *Index) Record(ctx context.Context, summary types.SessionSummary) error {
	const query = `
INSERT INTO sessions (name, session_id, status, error, input_hash, title, day_count, character_count, run_id, processed_at)
VALUES (:name, :session_id, :status, :error, :input_hash, :title, :day_count, :character_count, :run_id, :processed_at)
ON CONFLICT (name) DO UPDATE SET
    session_id = excluded.session_id,
    status = excluded.status,
    error = excluded.error,
    input_hash = excluded.input_hash,
    title = excluded.title,
    day_count = excluded.day_count,
    character_count = excluded.character_count,
    run_id = excluded.run_id,
    processed_at = excluded.processed_at`

	if summary.ProcessedAt.IsZero() {
		summary.ProcessedAt = time.Now().UTC()
	}
	if _, err := i.db.NamedExecContext(ctx, query, summary); err != nil {
		return fmt.Errorf("failed to record session %s: %w", summary.Name, err)
	}

	i.logger.Debug("Recorded session",
		zap.String("session", summary.Name),
		zap.String("status", summary.Status))

	return nil
}

// Get returns the summary of one session
func (i *Index) Get(ctx context.Context, name string) (*types.SessionSummary, error) {
	var summary types.SessionSummary
	err := i.db.GetContext(ctx, &summary, `SELECT * FROM sessions WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", name, err)
	}
	return &summary, nil
}

// List returns every indexed session ordered by name
func (i *Index) List(ctx context.Context) ([]types.SessionSummary, error) {
	summaries := make([]types.SessionSummary, 0)
	if err := i.db.SelectContext(ctx, &summaries, `SELECT * FROM sessions ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return summaries, nil
}

// CountByStatus returns how many sessions are in each status
func (i *Index) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}{}
	if err := i.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM sessions GROUP BY status`); err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

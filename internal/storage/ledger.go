// Package storage persists the run ledger: one row of telemetry per
// finished optimization run. The ledger is an audit trail for the
// history and usage commands, never a resumption mechanism. Session
// state itself is discarded when the process exits.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/joss/promptsmith/internal/domain"
)

// RunRecord is one ledger row.
type RunRecord struct {
	ID            string
	SessionID     string
	DraftPrompt   string
	FinalOutput   string
	Backend       string
	Model         string
	AcceptedSteps int
	Rejections    int
	Usage         domain.TokenUsage
	CreatedAt     time.Time
}

// Ledger is a sqlite-backed run log.
type Ledger struct {
	db   *sql.DB
	path string
}

// Open creates or opens the ledger under dataDir.
func Open(dataDir string) (*Ledger, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "promptsmith.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	l := &Ledger{db: db, path: dbPath}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return l, nil
}

func (l *Ledger) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		draft_prompt TEXT NOT NULL,
		final_output TEXT NOT NULL,
		backend TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		accepted_steps INTEGER NOT NULL DEFAULT 0,
		rejections INTEGER NOT NULL DEFAULT 0,
		prompt_tokens INTEGER NOT NULL DEFAULT 0,
		completion_tokens INTEGER NOT NULL DEFAULT 0,
		cached_tokens INTEGER NOT NULL DEFAULT 0,
		cost_usd REAL NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Close releases the database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record inserts one finished run.
func (l *Ledger) Record(ctx context.Context, rec *RunRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (id, session_id, draft_prompt, final_output, backend, model,
			accepted_steps, rejections, prompt_tokens, completion_tokens, cached_tokens, cost_usd, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.SessionID, rec.DraftPrompt, rec.FinalOutput, rec.Backend, rec.Model,
		rec.AcceptedSteps, rec.Rejections,
		rec.Usage.PromptTokens, rec.Usage.CompletionTokens, rec.Usage.CachedTokens, rec.Usage.CostUSD,
		rec.CreatedAt)
	return err
}

// List returns the most recent runs, newest first.
func (l *Ledger) List(ctx context.Context, limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, session_id, draft_prompt, final_output, backend, model,
			accepted_steps, rejections, prompt_tokens, completion_tokens, cached_tokens, cost_usd, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.DraftPrompt, &rec.FinalOutput,
			&rec.Backend, &rec.Model, &rec.AcceptedSteps, &rec.Rejections,
			&rec.Usage.PromptTokens, &rec.Usage.CompletionTokens, &rec.Usage.CachedTokens,
			&rec.Usage.CostUSD, &rec.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, &rec)
	}
	return runs, rows.Err()
}

// Totals aggregates usage over every recorded run.
func (l *Ledger) Totals(ctx context.Context) (domain.TokenUsage, int, error) {
	var usage domain.TokenUsage
	var count int
	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(prompt_tokens), 0),
			COALESCE(SUM(completion_tokens), 0),
			COALESCE(SUM(cached_tokens), 0),
			COALESCE(SUM(cost_usd), 0)
		FROM runs
	`).Scan(&count, &usage.PromptTokens, &usage.CompletionTokens, &usage.CachedTokens, &usage.CostUSD)
	if err != nil {
		return domain.TokenUsage{}, 0, err
	}
	return usage, count, nil
}

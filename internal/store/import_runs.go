package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ImportRun is the audit record of one spreadsheet import.
type ImportRun struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Clients    int       `json:"clients"`
	Services   int       `json:"services"`
	Tiers      int       `json:"tiers"`
	Skipped    int       `json:"skipped"`
	Warnings   []string  `json:"warnings"`
}

// RecordImportRun stores run inside tx so it commits with the imported data.
func (s *Store) RecordImportRun(ctx context.Context, tx *sql.Tx, run ImportRun) error {
	warnings := run.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	encoded, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("encode import warnings: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO import_runs (id, source, started_at, finished_at, clients, services, tiers, skipped, warnings_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Source, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Clients, run.Services, run.Tiers, run.Skipped, string(encoded))
	if err != nil {
		return fmt.Errorf("insert import run %s: %w", run.ID, err)
	}
	return nil
}

// LastImportRun returns the most recently recorded run.
func (s *Store) LastImportRun(ctx context.Context) (*ImportRun, error) {
	var (
		run      ImportRun
		warnings string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source, started_at, finished_at, clients, services, tiers, skipped, warnings_json
		FROM import_runs
		ORDER BY rowid DESC
		LIMIT 1
	`).Scan(&run.ID, &run.Source, &run.StartedAt, &run.FinishedAt, &run.Clients, &run.Services, &run.Tiers, &run.Skipped, &warnings)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query last import run: %w", err)
	}

	if err := json.Unmarshal([]byte(warnings), &run.Warnings); err != nil {
		return nil, fmt.Errorf("decode import warnings: %w", err)
	}
	return &run, nil
}

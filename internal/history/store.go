// Package history archives completed QC runs in a SQLite database so past
// runs can be compared without re-reading archived reports.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"amiqc/internal/domain"
)

// Store is the SQLite-backed QC run archive.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the history database at path and applies
// pending migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open history db %q: %w", path, err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db %q: %w", path, err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// InsertRun archives one completed run with its step records, atomically.
func (s *Store) InsertRun(ctx context.Context, run *domain.QcRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO qc_runs (id, tenant_id, execution_date, created_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.TenantID, run.ExecutionDate, run.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert qc run %q: %w", run.ID, err)
	}

	for _, rec := range run.Records {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO qc_step_records (run_id, step_id, step_name, execution_date, metrics, qc_reference, misc)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, rec.ID, rec.Name, rec.ExecutionDate, rec.Metrics, rec.QcReference, rec.Misc,
		)
		if err != nil {
			return fmt.Errorf("insert qc step record %q/%q: %w", run.ID, rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history tx: %w", err)
	}
	s.logger.Debug("archived qc run", "run_id", run.ID, "steps", len(run.Records))
	return nil
}

// ListRuns returns the most recent runs for a tenant, newest first, without
// their step records.
func (s *Store) ListRuns(ctx context.Context, tenantID string, limit int) ([]domain.QcRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, execution_date, created_at FROM qc_runs
		 WHERE tenant_id = ? ORDER BY created_at DESC LIMIT ?`,
		tenantID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list qc runs for %q: %w", tenantID, err)
	}
	defer rows.Close()

	var runs []domain.QcRun
	for rows.Next() {
		var run domain.QcRun
		var created string
		if err := rows.Scan(&run.ID, &run.TenantID, &run.ExecutionDate, &created); err != nil {
			return nil, fmt.Errorf("scan qc run: %w", err)
		}
		run.CreatedAt, err = time.Parse(time.RFC3339, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one archived run with its step records, ordered by step id.
func (s *Store) GetRun(ctx context.Context, id string) (*domain.QcRun, error) {
	run := &domain.QcRun{}
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, execution_date, created_at FROM qc_runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.TenantID, &run.ExecutionDate, &created)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound("qc run %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get qc run %q: %w", id, err)
	}
	run.CreatedAt, err = time.Parse(time.RFC3339, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT step_id, step_name, execution_date, metrics, qc_reference, misc
		 FROM qc_step_records WHERE run_id = ? ORDER BY step_id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("get qc step records for %q: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec domain.QcRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.ExecutionDate, &rec.Metrics, &rec.QcReference, &rec.Misc); err != nil {
			return nil, fmt.Errorf("scan qc step record: %w", err)
		}
		run.Records = append(run.Records, rec)
	}
	return run, rows.Err()
}

package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/bitebase/deployctl/internal/core/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// maxStoredOutput caps how much captured command output one step row keeps.
// The operator already saw the full stream; the journal keeps the tail.
const maxStoredOutput = 4096

// =============================================================================
// SQLiteJournal
// =============================================================================

// SQLiteJournal implements Journal using SQLite.
type SQLiteJournal struct {
	db *sqlx.DB
}

// NewSQLiteJournal opens (or creates) the journal database and runs
// migrations.
func NewSQLiteJournal(dsn string) (*SQLiteJournal, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewJournalError("NewSQLiteJournal", "", "failed to open database", ErrConnectionFailed)
	}

	// SQLite allows one writer; a single pooled connection also keeps
	// in-memory databases coherent across queries.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewJournalError("NewSQLiteJournal", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewJournalError("NewSQLiteJournal", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteJournal{db: db}, nil
}

// runMigrations applies the embedded schema migrations.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// =============================================================================
// Row Types
// =============================================================================

type runRow struct {
	ID         string  `db:"id"`
	Status     string  `db:"status"`
	Endpoint   string  `db:"endpoint"`
	StartedAt  string  `db:"started_at"`
	FinishedAt *string `db:"finished_at"`
}

type stepRow struct {
	ID         int64  `db:"id"`
	RunID      string `db:"run_id"`
	Step       string `db:"step"`
	ExitCode   int    `db:"exit_code"`
	Output     string `db:"output"`
	ElapsedMS  int64  `db:"elapsed_ms"`
	RecordedAt string `db:"recorded_at"`
}

func (r runRow) toDomain() domain.RunRecord {
	run := domain.RunRecord{
		ID:       r.ID,
		Status:   domain.RunStatus(r.Status),
		Endpoint: r.Endpoint,
	}
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, r.StartedAt)
	if r.FinishedAt != nil {
		run.FinishedAt, _ = time.Parse(time.RFC3339Nano, *r.FinishedAt)
	}
	return run
}

// =============================================================================
// Run Operations
// =============================================================================

// CreateRun implements Journal.
func (j *SQLiteJournal) CreateRun(ctx context.Context, run *domain.RunRecord) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, endpoint, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, string(run.Status), run.Endpoint, run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return NewJournalError("CreateRun", run.ID, "duplicate run id", ErrDuplicateID)
		}
		return NewJournalError("CreateRun", run.ID, err.Error(), err)
	}
	return nil
}

// RecordStep implements Journal.
func (j *SQLiteJournal) RecordStep(ctx context.Context, runID string, step domain.StepResult) error {
	output := step.Output
	if len(output) > maxStoredOutput {
		output = output[len(output)-maxStoredOutput:]
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO run_steps (run_id, step, exit_code, output, elapsed_ms, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, string(step.Step), step.ExitCode, output,
		step.Elapsed.Milliseconds(), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return NewJournalError("RecordStep", runID, err.Error(), err)
	}
	return nil
}

// FinishRun implements Journal.
func (j *SQLiteJournal) FinishRun(ctx context.Context, run *domain.RunRecord) error {
	res, err := j.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, endpoint = ?, finished_at = ? WHERE id = ?`,
		string(run.Status), run.Endpoint, run.FinishedAt.Format(time.RFC3339Nano), run.ID,
	)
	if err != nil {
		return NewJournalError("FinishRun", run.ID, err.Error(), err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return NewJournalError("FinishRun", run.ID, err.Error(), err)
	}
	if affected == 0 {
		return NewJournalError("FinishRun", run.ID, "run not found", ErrNotFound)
	}
	return nil
}

// GetRun implements Journal.
func (j *SQLiteJournal) GetRun(ctx context.Context, id string) (*domain.RunRecord, error) {
	var row runRow
	err := j.db.GetContext(ctx, &row, `SELECT * FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewJournalError("GetRun", id, "run not found", ErrNotFound)
	}
	if err != nil {
		return nil, NewJournalError("GetRun", id, err.Error(), err)
	}

	var steps []stepRow
	err = j.db.SelectContext(ctx, &steps,
		`SELECT * FROM run_steps WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, NewJournalError("GetRun", id, err.Error(), err)
	}

	run := row.toDomain()
	for _, s := range steps {
		run.Steps = append(run.Steps, domain.StepResult{
			Step:     domain.StepName(s.Step),
			ExitCode: s.ExitCode,
			Output:   s.Output,
			Elapsed:  time.Duration(s.ElapsedMS) * time.Millisecond,
		})
	}
	return &run, nil
}

// ListRuns implements Journal.
func (j *SQLiteJournal) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []runRow
	err := j.db.SelectContext(ctx, &rows,
		`SELECT * FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, NewJournalError("ListRuns", "", err.Error(), err)
	}

	runs := make([]domain.RunRecord, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, row.toDomain())
	}
	return runs, nil
}

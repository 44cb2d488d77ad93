// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records every generated report in a SQLite database so
// later runs can skip reports whose grades have not changed, and so the
// history of generated reports can be listed and exported.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/ci-report/pkg/types"
)

const dbFile = "reports.db"

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the report ledger database.
type Store struct {
	db       *sql.DB
	indexDir string
	now      func() time.Time
}

// NewStore opens or creates the ledger at indexDir/reports.db and creates
// the schema if it does not exist.
func NewStore(indexDir string) (*Store, error) {
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(indexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, indexDir: indexDir, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			config_name TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			generated INTEGER NOT NULL DEFAULT 0,
			unchanged INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS reports (
			path TEXT PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES runs(id),
			config_name TEXT NOT NULL,
			program TEXT,
			indicator TEXT,
			level TEXT,
			course TEXT,
			assessment TEXT,
			grades_file TEXT,
			grades_mod_time TEXT,
			bin_labels TEXT,
			series TEXT,
			generated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_program ON reports(program)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_course ON reports(course)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginRun registers a new generation run and returns its id.
func (s *Store) BeginRun(ctx context.Context, configName string) (string, error) {
	id := uuid.NewString()
	query, args, err := sq.Insert("runs").
		Columns("id", "config_name", "started_at").
		Values(id, configName, s.now().UTC().Format(timeLayout)).
		ToSql()
	if err != nil {
		return "", err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	return id, nil
}

// FinishRun stores the final counts of the run named by summary.RunID.
func (s *Store) FinishRun(ctx context.Context, summary types.RunSummary) error {
	query, args, err := sq.Update("runs").
		Set("finished_at", s.now().UTC().Format(timeLayout)).
		Set("generated", summary.Generated).
		Set("unchanged", summary.Unchanged).
		Set("skipped", summary.Skipped).
		Set("failed", summary.Failed).
		Where(sq.Eq{"id": summary.RunID}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating run %s: %w", summary.RunID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", summary.RunID)
	}
	return nil
}

// Record stores rec, replacing any earlier record for the same path.
func (s *Store) Record(ctx context.Context, rec types.ReportRecord) error {
	labels, err := json.Marshal(rec.BinLabels)
	if err != nil {
		return fmt.Errorf("encoding bin labels: %w", err)
	}
	series, err := json.Marshal(rec.Series)
	if err != nil {
		return fmt.Errorf("encoding series: %w", err)
	}
	generated := rec.GeneratedAt
	if generated.IsZero() {
		generated = s.now()
	}

	query, args, err := sq.Insert("reports").
		Columns("path", "run_id", "config_name", "program", "indicator", "level",
			"course", "assessment", "grades_file", "grades_mod_time",
			"bin_labels", "series", "generated_at").
		Values(rec.Path, rec.RunID, rec.ConfigName, rec.Program, rec.Indicator, rec.Level,
			rec.Course, rec.Assessment, rec.GradesFile, rec.GradesModTime,
			string(labels), string(series), generated.UTC().Format(timeLayout)).
		Suffix(`ON CONFLICT(path) DO UPDATE SET
			run_id=excluded.run_id, config_name=excluded.config_name,
			program=excluded.program, indicator=excluded.indicator, level=excluded.level,
			course=excluded.course, assessment=excluded.assessment,
			grades_file=excluded.grades_file, grades_mod_time=excluded.grades_mod_time,
			bin_labels=excluded.bin_labels, series=excluded.series,
			generated_at=excluded.generated_at`).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("recording %s: %w", rec.Path, err)
	}
	return nil
}

// Lookup returns the record stored for path, or nil if there is none.
func (s *Store) Lookup(ctx context.Context, path string) (*types.ReportRecord, error) {
	query, args, err := selectReports().Where(sq.Eq{"path": path}).ToSql()
	if err != nil {
		return nil, err
	}
	rec, err := scanReport(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", path, err)
	}
	return rec, nil
}

// Unchanged reports whether the report at path was last generated from a
// grades file with the same modification time under the same
// configuration, and the report file is still on disk.
func (s *Store) Unchanged(ctx context.Context, path, gradesModTime, configName string) (bool, error) {
	rec, err := s.Lookup(ctx, path)
	if err != nil || rec == nil {
		return false, err
	}
	if rec.GradesModTime != gradesModTime || rec.ConfigName != configName {
		return false, nil
	}
	if _, err := os.Stat(path); err != nil {
		return false, nil
	}
	return true, nil
}

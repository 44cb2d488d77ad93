// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/pdiddy/ci-report/pkg/types"
)

// Filter narrows the records returned by Retrieve. Zero fields do not filter.
type Filter struct {
	Program string
	// Indicator matches records whose indicator starts with it.
	Indicator string
	Course    string
	RunID     string
	// Limit caps the number of records; zero means no limit.
	Limit int
}

var reportColumns = []string{
	"path", "run_id", "config_name", "program", "indicator", "level",
	"course", "assessment", "grades_file", "grades_mod_time",
	"bin_labels", "series", "generated_at",
}

func selectReports() sq.SelectBuilder {
	return sq.Select(reportColumns...).From("reports")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (*types.ReportRecord, error) {
	var (
		rec                       types.ReportRecord
		program, indicator, level sql.NullString
		course, assessment        sql.NullString
		gradesFile, gradesModTime sql.NullString
		labelsJSON, seriesJSON    sql.NullString
		generatedAt               string
	)
	err := row.Scan(&rec.Path, &rec.RunID, &rec.ConfigName, &program, &indicator, &level,
		&course, &assessment, &gradesFile, &gradesModTime,
		&labelsJSON, &seriesJSON, &generatedAt)
	if err != nil {
		return nil, err
	}

	rec.Program = program.String
	rec.Indicator = indicator.String
	rec.Level = level.String
	rec.Course = course.String
	rec.Assessment = assessment.String
	rec.GradesFile = gradesFile.String
	rec.GradesModTime = gradesModTime.String

	if labelsJSON.String != "" {
		if err := json.Unmarshal([]byte(labelsJSON.String), &rec.BinLabels); err != nil {
			return nil, fmt.Errorf("decoding bin labels of %s: %w", rec.Path, err)
		}
	}
	if seriesJSON.String != "" {
		if err := json.Unmarshal([]byte(seriesJSON.String), &rec.Series); err != nil {
			return nil, fmt.Errorf("decoding series of %s: %w", rec.Path, err)
		}
	}
	if rec.GeneratedAt, err = time.Parse(timeLayout, generatedAt); err != nil {
		return nil, fmt.Errorf("parsing generated_at of %s: %w", rec.Path, err)
	}
	return &rec, nil
}

// Retrieve returns the records matching f sorted by program and path.
func (s *Store) Retrieve(ctx context.Context, f Filter) ([]types.ReportRecord, error) {
	b := selectReports().OrderBy("program", "path")
	if f.Program != "" {
		b = b.Where(sq.Eq{"program": f.Program})
	}
	if f.Indicator != "" {
		b = b.Where(sq.Like{"indicator": f.Indicator + "%"})
	}
	if f.Course != "" {
		b = b.Where(sq.Eq{"course": f.Course})
	}
	if f.RunID != "" {
		b = b.Where(sq.Eq{"run_id": f.RunID})
	}
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var out []types.ReportRecord
	for rows.Next() {
		rec, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Run is one generation run as stored in the ledger.
type Run struct {
	types.RunSummary `yaml:",inline"`
	ConfigName       string    `json:"config_name" yaml:"config_name"`
	StartedAt        time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt       time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

// Runs returns the most recent runs first, at most limit of them (all when
// limit is zero).
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	b := sq.Select("id", "config_name", "started_at", "finished_at",
		"generated", "unchanged", "skipped", "failed").
		From("runs").
		OrderBy("started_at DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r        Run
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&r.RunID, &r.ConfigName, &started, &finished,
			&r.Generated, &r.Unchanged, &r.Skipped, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parsing started_at of run %s: %w", r.RunID, err)
		}
		if finished.Valid {
			if r.FinishedAt, err = time.Parse(timeLayout, finished.String); err != nil {
				return nil, fmt.Errorf("parsing finished_at of run %s: %w", r.RunID, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

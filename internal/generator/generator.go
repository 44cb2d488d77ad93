// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generator drives report generation: it queries the indicator
// sheets, opens the grades behind every indicator row, and renders one
// histogram report per row.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/pdiddy/ci-report/internal/datastore"
	"github.com/pdiddy/ci-report/internal/grades"
	"github.com/pdiddy/ci-report/internal/ledger"
	"github.com/pdiddy/ci-report/internal/report"
	"github.com/pdiddy/ci-report/pkg/types"
)

// ProgramsKey is the whitelist entry that selects programs rather than
// filtering indicator rows.
const ProgramsKey = "programs"

// BinsColumn is the indicator sheet column holding the bin edges.
const BinsColumn = "Bins"

// ErrUnsupportedGrouping is returned when the configuration groups grades
// by anything other than academic year.
var ErrUnsupportedGrouping = errors.New("only plot_grades_by \"year\" is supported")

// noBins are the Bins cell values that mark a row without a histogram.
var noBins = map[string]bool{"": true, "nan": true, "None": true, "!": true, "!!": true, "!!!": true}

// Options configures a Generator.
type Options struct {
	// Whitelist limits what is processed. The "programs" entry selects
	// programs; every other entry filters indicator rows by column.
	Whitelist map[string][]string

	IndicatorsDir string
	GradesDir     string
	HistogramsDir string

	// Store overrides the DataStore built from the whitelist.
	Store *datastore.Store

	// Ledger records generated reports; nil disables recording and the
	// unchanged check.
	Ledger *ledger.Store

	// Force regenerates reports the ledger considers unchanged.
	Force bool

	Logger *zap.Logger
}

// Generator produces reports for the indicator rows selected by its whitelist.
type Generator struct {
	cfg     *types.ReportConfig
	ds      *datastore.Store
	queries []datastore.Query
	histDir string
	ledger  *ledger.Store
	force   bool
	grades  *cache.Cache
	log     *zap.Logger
}

// New builds a Generator and creates the histograms directory.
func New(cfg *types.ReportConfig, opts Options) (*Generator, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ds := opts.Store
	if ds == nil {
		var err error
		ds, err = datastore.New(datastore.Options{
			Programs:      opts.Whitelist[ProgramsKey],
			IndicatorsDir: opts.IndicatorsDir,
			GradesDir:     opts.GradesDir,
			Logger:        log,
		})
		if err != nil {
			return nil, err
		}
	}

	histDir := opts.HistogramsDir
	if histDir == "" {
		histDir = "Histograms"
	}
	if err := os.MkdirAll(histDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating histograms directory: %w", err)
	}

	return &Generator{
		cfg:     cfg,
		ds:      ds,
		queries: QueriesFrom(opts.Whitelist),
		histDir: histDir,
		ledger:  opts.Ledger,
		force:   opts.Force,
		grades:  cache.New(cache.NoExpiration, 0),
		log:     log,
	}, nil
}

// QueriesFrom turns every whitelist entry except "programs" into an
// indicator query. Queries are ordered by key.
func QueriesFrom(whitelist map[string][]string) []datastore.Query {
	var queries []datastore.Query
	for k, v := range whitelist {
		if k == ProgramsKey {
			continue
		}
		queries = append(queries, datastore.Query{Key: k, Values: v})
	}
	sort.Slice(queries, func(i, j int) bool { return queries[i].Key < queries[j].Key })
	return queries
}

// Queries returns the indicator queries derived from the whitelist.
func (g *Generator) Queries() []datastore.Query { return g.queries }

// HasBins reports whether an indicator row defines bin edges.
func HasBins(row types.Row) bool {
	return !noBins[row.Get(BinsColumn)]
}

// ParseRow extracts the report header and bin edges from an indicator
// row. Each header key from the configuration collects every column whose
// name contains it, joined with " - ".
func (g *Generator) ParseRow(row types.Row) (types.Header, []float64, error) {
	bins, err := ParseBins(row.Get(BinsColumn))
	if err != nil {
		return nil, nil, err
	}

	var header types.Header
	for _, key := range strings.Split(g.cfg.HeaderAttribs, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		var parts []string
		for i, col := range row.Columns {
			if !strings.Contains(col, key) {
				continue
			}
			if v := strings.TrimSpace(row.Values[i]); v != "" {
				parts = append(parts, v)
			}
		}
		header.Set(key, strings.Join(parts, " - "))
	}
	return header, bins, nil
}

// ParseBins parses a comma-separated list of bin edges.
func ParseBins(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	bins := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing bins %q: %w", s, err)
		}
		bins = append(bins, v)
	}
	return bins, nil
}

// OutputPath returns the report file for header, named by the indicator
// number, the first letter of the level and the configuration name.
func (g *Generator) OutputPath(header types.Header) string {
	indicator := strings.TrimSpace(strings.SplitN(header.Get("Indicator"), "-", 2)[0])
	level := header.Get("Level")
	if r, size := utf8.DecodeRuneInString(level); size > 0 {
		level = string(r)
	}
	name := fmt.Sprintf("%s-%s Report - %s.%s", indicator, level, g.cfg.Name, g.cfg.Format)
	return filepath.Join(g.histDir, name)
}

// Autogenerate renders a report for every indicator row of every program
// that matches the whitelist. A row without bins or without a grade sheet
// is skipped; a row whose report fails is counted and the run continues.
func (g *Generator) Autogenerate(ctx context.Context, w io.Writer) (types.RunSummary, error) {
	var summary types.RunSummary
	if g.cfg.PlotGradesBy != "year" {
		return summary, fmt.Errorf("%w: got %q", ErrUnsupportedGrouping, g.cfg.PlotGradesBy)
	}

	summary.RunID = uuid.NewString()
	if g.ledger != nil {
		id, err := g.ledger.BeginRun(ctx, g.cfg.Name)
		if err != nil {
			return summary, err
		}
		summary.RunID = id
	}

	for _, program := range g.ds.Programs() {
		rows, err := g.ds.Query(program, g.queries)
		if err != nil {
			g.log.Warn("query failed", zap.String("program", program), zap.Error(err))
			fmt.Fprintf(w, "failed  %s: %v\n", program, err)
			summary.Failed++
			continue
		}

		for i := 0; i < rows.Len(); i++ {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			default:
			}

			row := rows.Row(i)
			id := strings.TrimSpace(row.Get("Indicator #") + " " + row.Get("Level"))
			if !HasBins(row) {
				fmt.Fprintf(w, "skipped %s %s: no bins\n", program, id)
				summary.Skipped++
				continue
			}

			path, outcome, err := g.generateRow(ctx, program, row, summary.RunID)
			switch outcome {
			case generated:
				fmt.Fprintf(w, "generated %s\n", path)
				summary.Generated++
			case unchanged:
				fmt.Fprintf(w, "unchanged %s\n", path)
				summary.Unchanged++
			case skipped:
				fmt.Fprintf(w, "skipped %s %s: %v\n", program, id, err)
				summary.Skipped++
			default:
				g.log.Error("report failed", zap.String("program", program), zap.String("indicator", id), zap.Error(err))
				fmt.Fprintf(w, "failed  %s %s: %v\n", program, id, err)
				summary.Failed++
			}
		}
	}

	fmt.Fprintf(w, "\ngenerated: %d, unchanged: %d, skipped: %d, failed: %d\n",
		summary.Generated, summary.Unchanged, summary.Skipped, summary.Failed)

	if g.ledger != nil {
		if err := g.ledger.FinishRun(ctx, summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

type outcome int

const (
	failed outcome = iota
	generated
	unchanged
	skipped
)

func (g *Generator) generateRow(ctx context.Context, program string, row types.Row, runID string) (string, outcome, error) {
	header, bins, err := g.ParseRow(row)
	if err != nil {
		return "", failed, err
	}
	header.Set("Program", program)

	gradesPath := grades.Path(row, program, grades.OpenOptions{GradesDir: g.ds.GradesDir()})
	info, err := os.Stat(gradesPath)
	if err != nil {
		return "", skipped, fmt.Errorf("grades: %w", err)
	}
	modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

	out := g.OutputPath(header)
	if g.ledger != nil && !g.force {
		same, err := g.ledger.Unchanged(ctx, out, modTime, g.cfg.Name)
		if err != nil {
			return out, failed, err
		}
		if same {
			return out, unchanged, nil
		}
	}

	table, err := g.openGrades(gradesPath, modTime)
	if err != nil {
		return "", skipped, fmt.Errorf("grades: %w", err)
	}

	course := strings.Split(header.Get("Course"), " - ")[0]
	names, err := grades.ColsToCohorts(table, course, 0)
	if err != nil {
		return out, failed, err
	}
	byCohort := &types.GradeTable{Columns: make([]types.GradeColumn, len(table.Columns))}
	for i, col := range table.Columns {
		byCohort.Columns[i] = types.GradeColumn{Name: names[i], Values: col.Values}
	}

	r, err := report.New(header, bins, g.cfg)
	if err != nil {
		return out, failed, err
	}
	r.AddHeader()
	if err := r.Plot(byCohort); err != nil {
		return out, failed, err
	}
	if g.cfg.AddBinRanges {
		if err := r.AddBinRanges(); err != nil {
			return out, failed, err
		}
	}
	if g.cfg.AddTitle {
		r.AddTitle("")
	}
	if err := r.Save(out, g.cfg.Format); err != nil {
		return out, failed, err
	}

	if g.ledger != nil {
		rec := types.ReportRecord{
			Path:          out,
			RunID:         runID,
			ConfigName:    g.cfg.Name,
			Program:       program,
			Indicator:     header.Get("Indicator"),
			Level:         header.Get("Level"),
			Course:        course,
			Assessment:    row.Get(grades.DefaultAssessmentColumn),
			GradesFile:    gradesPath,
			GradesModTime: modTime,
			BinLabels:     r.Labels(),
			Series:        r.Series(),
			GeneratedAt:   time.Now(),
		}
		if err := g.ledger.Record(ctx, rec); err != nil {
			return out, failed, err
		}
	}
	return out, generated, nil
}

// openGrades reads a grade sheet once per run; several indicators often
// share the same assessment.
func (g *Generator) openGrades(path, modTime string) (*types.GradeTable, error) {
	key := path + "@" + modTime
	if t, ok := g.grades.Get(key); ok {
		return t.(*types.GradeTable), nil
	}
	t, err := grades.Read(path)
	if err != nil {
		return nil, err
	}
	g.log.Debug("opened grades", zap.String("path", path), zap.Int("columns", len(t.Columns)))
	g.grades.Set(key, t, cache.NoExpiration)
	return t, nil
}

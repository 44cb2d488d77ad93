// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package datastore holds the master indicator sheets of each program and
// answers queries against them.
package datastore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/ci-report/internal/workbook"
	"github.com/pdiddy/ci-report/pkg/types"
)

// AllPrograms lists the engineering programs with indicator sheets.
var AllPrograms = []string{"ENCM", "ENCV", "ENEL", "ENMC", "ENPR", "ONAE"}

// ErrNoColumn is returned when a query key matches no column of the sheet.
var ErrNoColumn = errors.New("no column matches query key")

// Query keeps the rows whose column matching Key contains any of Values.
// Key matches the first column whose name contains it, ignoring case.
// Values are regular expressions, so "KB" selects every KB indicator and
// "KB.1" only the first.
type Query struct {
	Key    string
	Values []string
}

// SheetName returns the indicator workbook file name of program.
func SheetName(program string) string {
	return program + " Indicators" + workbook.Ext
}

// Options configures a Store.
type Options struct {
	// Programs to load. Empty loads AllPrograms.
	Programs []string
	// IndicatorsDir holds the "<PROGRAM> Indicators.xlsx" sheets.
	IndicatorsDir string
	// GradesDir is the top of the grade hierarchy.
	GradesDir string
	Logger    *zap.Logger
}

// Store holds the indicator sheets of a set of programs.
type Store struct {
	programs      []string
	indicatorsDir string
	gradesDir     string
	indicators    map[string]*types.Table
	lastQuery     *types.Table
	log           *zap.Logger
}

// New loads the indicator sheet of every requested program. A missing
// sheet is logged and leaves that program without indicators; other read
// failures are returned.
func New(opts Options) (*Store, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	programs := opts.Programs
	if len(programs) == 0 {
		programs = append([]string(nil), AllPrograms...)
	}

	s := &Store{
		programs:      programs,
		indicatorsDir: opts.IndicatorsDir,
		gradesDir:     opts.GradesDir,
		indicators:    make(map[string]*types.Table),
		log:           log,
	}

	for _, p := range programs {
		t, err := s.load(p)
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("indicator sheet not found, no indicators loaded",
				zap.String("program", p), zap.String("path", s.sheetPath(p)))
			continue
		}
		if err != nil {
			return nil, err
		}
		s.indicators[p] = t
	}
	return s, nil
}

func (s *Store) sheetPath(program string) string {
	return filepath.Join(s.indicatorsDir, SheetName(program))
}

func (s *Store) load(program string) (*types.Table, error) {
	path := s.sheetPath(program)
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	t, err := workbook.ReadTable(path)
	if err != nil {
		return nil, fmt.Errorf("loading indicators for %s: %w", program, err)
	}
	s.log.Debug("loaded indicators", zap.String("program", program), zap.Int("rows", t.Len()))
	return t, nil
}

// Programs returns the programs the store was created for.
func (s *Store) Programs() []string {
	return s.programs
}

// GradesDir returns the top of the grade hierarchy.
func (s *Store) GradesDir() string {
	return s.gradesDir
}

// Indicators returns the indicator sheet of program, loading it on first use.
// A program without a sheet has no indicators: the result is an empty
// table and no error. The absence is not cached.
func (s *Store) Indicators(program string) (*types.Table, error) {
	if t, ok := s.indicators[program]; ok {
		return t, nil
	}
	s.log.Info("indicators not loaded, loading now", zap.String("program", program))
	t, err := s.load(program)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Warn("indicator sheet not found, no indicators loaded",
			zap.String("program", program), zap.String("path", s.sheetPath(program)))
		return &types.Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("indicators for %s: %w", program, err)
	}
	s.indicators[program] = t
	return t, nil
}

// Query filters the indicator sheet of program by each query in turn and
// returns the remaining rows. A program without a sheet yields an empty
// table. The result is also kept as LastQuery.
func (s *Store) Query(program string, queries []Query) (*types.Table, error) {
	t, err := s.Indicators(program)
	if err != nil {
		return nil, err
	}

	if len(t.Columns) == 0 {
		s.lastQuery = t
		return t, nil
	}

	for _, q := range queries {
		col := matchColumn(t.Columns, q.Key)
		if col < 0 {
			return nil, fmt.Errorf("%w: %q in %s", ErrNoColumn, q.Key, SheetName(program))
		}
		if len(q.Values) == 0 {
			continue
		}
		pat, err := regexp.Compile(strings.Join(q.Values, "|"))
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", q.Key, err)
		}
		t = t.Filter(func(r types.Row) bool {
			cell := r.Values[col]
			return cell != "" && pat.MatchString(cell)
		})
	}

	s.lastQuery = t
	return t, nil
}

// LastQuery returns the result of the most recent Query, or nil.
func (s *Store) LastQuery() *types.Table {
	return s.lastQuery
}

// matchColumn returns the first column whose name contains key, ignoring case.
func matchColumn(columns []string, key string) int {
	key = strings.ToLower(key)
	for i, c := range columns {
		if strings.Contains(strings.ToLower(c), key) {
			return i
		}
	}
	return -1
}

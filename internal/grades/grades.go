// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package grades locates and opens the per-course, per-assessment grade
// spreadsheets and organizes their columns by graduating cohort.
//
// Grade sheets live under <grades>/<PROGRAM>/ and are named
// "<course> <assessment>.xlsx", e.g. "ENGI 1010 Final Exam.xlsx". Each
// column holds the grades of one offering, named by academic year or by
// year and semester.
package grades

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/ci-report/internal/textfmt"
	"github.com/pdiddy/ci-report/internal/workbook"
	"github.com/pdiddy/ci-report/pkg/types"
)

const (
	// DefaultCourseColumn is the indicator sheet column holding the course number.
	DefaultCourseColumn = "Course #"
	// DefaultAssessmentColumn is the indicator sheet column holding the assessment type.
	DefaultAssessmentColumn = "Method of Assessment"
)

// OpenOptions controls how Open locates a grade sheet.
type OpenOptions struct {
	// CourseColumn overrides DefaultCourseColumn.
	CourseColumn string
	// AssessmentColumn overrides DefaultAssessmentColumn.
	AssessmentColumn string
	// GradesDir is the top of the grade hierarchy.
	GradesDir string
	// File bypasses the lookup and opens this path directly.
	File string
	// Logger receives debug output; nil disables it.
	Logger *zap.Logger
}

// Path returns the grade sheet path for an indicator row of program.
func Path(row types.Row, program string, opts OpenOptions) string {
	if opts.File != "" {
		return opts.File
	}
	courseCol := opts.CourseColumn
	if courseCol == "" {
		courseCol = DefaultCourseColumn
	}
	assessCol := opts.AssessmentColumn
	if assessCol == "" {
		assessCol = DefaultAssessmentColumn
	}
	name := fmt.Sprintf("%s %s%s", row.Get(courseCol), row.Get(assessCol), workbook.Ext)
	return filepath.Join(opts.GradesDir, program, name)
}

// Open reads the grade sheet for an indicator row of program.
func Open(row types.Row, program string, opts OpenOptions) (*types.GradeTable, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	path := Path(row, program, opts)
	log.Debug("opening grades", zap.String("path", path))
	return Read(path)
}

// Read parses the grade sheet at path.
func Read(path string) (*types.GradeTable, error) {
	t, err := workbook.ReadTable(path)
	if err != nil {
		return nil, err
	}
	return FromTable(t), nil
}

// FromTable converts a worksheet into a GradeTable. Blank and non-numeric
// cells become NaN; trailing blanks are trimmed from each column.
func FromTable(t *types.Table) *types.GradeTable {
	g := &types.GradeTable{Columns: make([]types.GradeColumn, len(t.Columns))}
	for c, name := range t.Columns {
		values := make([]float64, len(t.Rows))
		last := -1
		for r, row := range t.Rows {
			values[r] = parseGrade(row[c])
			if !types.Missing(values[r]) {
				last = r
			}
		}
		g.Columns[c] = types.GradeColumn{Name: name, Values: values[:last+1]}
	}
	return g
}

func parseGrade(cell string) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// TrueSize counts the values of a column that are not missing. Zeros and
// the no-data sentinel are counted; only empty cells are not.
func TrueSize(values []float64) int {
	n := 0
	for _, v := range values {
		if !types.Missing(v) {
			n++
		}
	}
	return n
}

// CohortLabel formats the legend entry for a cohort of size students.
func CohortLabel(cohort, size int) string {
	return fmt.Sprintf("CO%d: %d STUDENTS", cohort, size)
}

// ColsToCohorts returns a cohort legend entry for every column of g.
// course supplies the academic term unless termOffered is non-zero.
func ColsToCohorts(g *types.GradeTable, course string, termOffered int) ([]string, error) {
	names := make([]string, len(g.Columns))
	for i, col := range g.Columns {
		cohort, err := textfmt.GetCohort(col.Name, course, termOffered)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		names[i] = CohortLabel(cohort, TrueSize(col.Values))
	}
	return names, nil
}

// FindFiles returns the names in files that start with course followed by
// assessment and end in ".xlsx". The prefix match ignores case and all
// whitespace.
func FindFiles(course, assessment string, files []string) []string {
	prefix := squash(course + assessment)
	var matches []string
	for _, f := range files {
		if strings.HasPrefix(squash(f), prefix) && strings.HasSuffix(f, workbook.Ext) {
			matches = append(matches, f)
		}
	}
	return matches
}

func squash(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// DirectorySearch runs FindFiles over each subdirectory of mainDir. Every
// subdirectory gets an entry, empty when nothing matched.
func DirectorySearch(course, assessment, mainDir string, subdirs []string) (map[string][]string, error) {
	results := make(map[string][]string, len(subdirs))
	for _, sub := range subdirs {
		entries, err := os.ReadDir(filepath.Join(mainDir, sub))
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", sub, err)
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
		matches := FindFiles(course, assessment, names)
		if matches == nil {
			matches = []string{}
		}
		results[sub] = matches
	}
	return results, nil
}

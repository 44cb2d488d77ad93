// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package promo splits the Engineering One promotion sheet into per-program
// course grade files.
//
// The promotion sheet has one row per student, a "Match" column with the
// letter of the program the student was matched to, and one column per
// Engineering One course. Each course's grades are appended as a new
// academic-year column to "<grades>/<PROGRAM>/<COURSE> Course Grade - <PROGRAM>.xlsx".
package promo

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/ci-report/internal/datastore"
	"github.com/pdiddy/ci-report/internal/grades"
	"github.com/pdiddy/ci-report/internal/workbook"
	"github.com/pdiddy/ci-report/pkg/types"
)

const (
	// MatchColumn holds the program letter of each student.
	MatchColumn = "Match"
	// Undeclared collects students without a recognised program letter.
	Undeclared = "ENUD"
	// Core collects every student matched to a program.
	Core = "Core"
)

// Courses are the Engineering One courses copied out of the promotion sheet.
var Courses = []string{
	"English",
	"CHEM1050",
	"MATH1001",
	"MATH2050",
	"PHYS1051",
	"ENGI1010",
	"ENGI1020",
	"ENGI1030",
	"ENGI1040",
}

var matchPrograms = map[string]string{
	"E": "ENEL",
	"M": "ENMC",
	"T": "ENCM",
	"C": "ENCV",
	"P": "ENPR",
	"O": "ONAE",
}

// ErrAborted is returned when the user declines to continue after a grade
// file could not be opened.
var ErrAborted = errors.New("promotion sheet separation aborted")

// Options configures Separate.
type Options struct {
	// Year is the year on the promotion sheet. The grades are stored under
	// the academic year before it.
	Year int
	// GradesDir is the top of the grade hierarchy.
	GradesDir string
	// File is the promotion sheet. Empty searches GradesDir/Core.
	File string
	// Confirm is asked once, the first time an output file cannot be
	// opened for appending. Returning false aborts. Nil always continues.
	Confirm func(prompt string) bool
	Logger  *zap.Logger
}

// Summary holds counts from a separation run.
type Summary struct {
	Students int
	Created  int
	Appended int
}

// Total returns the number of grade files written.
func (s Summary) Total() int {
	return s.Created + s.Appended
}

// Programs lists every destination folder, in write order.
func Programs() []string {
	return append(append([]string(nil), datastore.AllPrograms...), Undeclared, Core)
}

// ProgramFor maps a Match letter to its program.
func ProgramFor(match string) string {
	if p, ok := matchPrograms[strings.TrimSpace(match)]; ok {
		return p
	}
	return Undeclared
}

// CourseName inserts the space between subject and number ("CHEM1050"
// becomes "CHEM 1050"). English is kept as is.
func CourseName(course string) string {
	if course == "English" || len(course) <= 4 {
		return course
	}
	return course[:4] + " " + course[4:]
}

// OutputPath returns the course grade file of program.
func OutputPath(gradesDir, program, course string) string {
	name := fmt.Sprintf("%s Course Grade - %s%s", CourseName(course), program, workbook.Ext)
	return filepath.Join(gradesDir, program, name)
}

// Find returns the first file in gradesDir/Core whose name contains year
// and "EngOne".
func Find(gradesDir string, year int) (string, error) {
	dir := filepath.Join(gradesDir, Core)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("listing %s: %w", dir, err)
	}
	y := strconv.Itoa(year)
	for _, e := range entries {
		if !e.IsDir() && strings.Contains(e.Name(), y) && strings.Contains(e.Name(), "EngOne") {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no EngOne promotion sheet for %d in %s", year, dir)
}

// gradeValue returns the grade in cell, or the no-data sentinel when the
// cell is not a whole number.
func gradeValue(cell string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || v != math.Trunc(v) {
		return types.NoData
	}
	return v
}

// Separate routes every student's Engineering One grades to their program
// and to Core, then appends one column per course to each program's course
// grade files.
func Separate(opts Options, w io.Writer) (Summary, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	var summary Summary

	file := opts.File
	if file == "" {
		found, err := Find(opts.GradesDir, opts.Year)
		if err != nil {
			return summary, err
		}
		file = found
	}
	fmt.Fprintf(w, "opening promotion sheet %s\n", file)
	sheet, err := workbook.ReadTable(file)
	if err != nil {
		return summary, err
	}

	match := sheet.ColumnIndex(MatchColumn)
	if match < 0 {
		return summary, fmt.Errorf("promotion sheet %s has no %q column", file, MatchColumn)
	}
	cols := make(map[string]int, len(Courses))
	for _, c := range Courses {
		i := sheet.ColumnIndex(c)
		if i < 0 {
			return summary, fmt.Errorf("promotion sheet %s has no %q column", file, c)
		}
		cols[c] = i
	}

	// program -> course -> grades
	collected := make(map[string]map[string][]float64)
	for _, p := range Programs() {
		collected[p] = make(map[string][]float64, len(Courses))
	}

	for r, row := range sheet.Rows {
		program := ProgramFor(row[match])
		if program == Undeclared {
			log.Info("no program found, adding to ENUD", zap.Int("row", r+2))
		}
		for _, c := range Courses {
			v := gradeValue(row[cols[c]])
			if v == types.NoData {
				log.Debug("grade is not an integer, saving as no data", zap.Int("row", r+2), zap.String("course", c))
			}
			collected[program][c] = append(collected[program][c], v)
			if program != Undeclared {
				collected[Core][c] = append(collected[Core][c], v)
			}
		}
		summary.Students++
	}

	column := strconv.Itoa(opts.Year - 1)
	warned := false
	for _, p := range Programs() {
		for _, c := range Courses {
			path := OutputPath(opts.GradesDir, p, c)

			table, err := grades.Read(path)
			created := err != nil
			if created {
				log.Debug("cannot open grade file", zap.String("path", path), zap.Error(err))
				if !warned {
					warned = true
					prompt := fmt.Sprintf("unable to open a grades file in %s; files that cannot be opened are replaced, not appended to. Continue?", opts.GradesDir)
					if opts.Confirm != nil && !opts.Confirm(prompt) {
						fmt.Fprintln(w, "stopping")
						return summary, ErrAborted
					}
				}
				table = &types.GradeTable{}
			}

			values := collected[p][c]
			if values == nil {
				values = []float64{}
			}
			table.Columns = append(table.Columns, types.GradeColumn{Name: column, Values: values})
			if err := workbook.WriteGrades(path, table); err != nil {
				return summary, fmt.Errorf("exporting %s: %w", path, err)
			}

			if created {
				fmt.Fprintf(w, "created  %s\n", path)
				summary.Created++
			} else {
				fmt.Fprintf(w, "appended %s\n", path)
				summary.Appended++
			}
		}
	}

	fmt.Fprintf(w, "\nstudents: %d, created: %d, appended: %d\n", summary.Students, summary.Created, summary.Appended)
	return summary, nil
}

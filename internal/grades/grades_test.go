// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grades

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ci-report/internal/workbook"
	"github.com/pdiddy/ci-report/pkg/types"
)

func TestFindFiles(t *testing.T) {
	files := []string{
		"ENGI 1040 Course Grade - ENCM.xlsx",
		"ENGI1040 course grade - Core - Custom column names.xlsx",
		"ENGI 1040 Circuits Grade - ENCM.xlsx",
		"ENGI 6861 Final Exam.xlsx",
		"ENGI 6861 Final Exam.csv",
		"ENGI 1040 Course Grade.XLSX",
		"notes.txt",
	}

	tests := []struct {
		course, assessment string
		want               []string
	}{
		{"ENGI 1040", "Course Grade", []string{
			"ENGI 1040 Course Grade - ENCM.xlsx",
			"ENGI1040 course grade - Core - Custom column names.xlsx",
		}},
		{"ENGI 1040", "Circuits Grade", []string{"ENGI 1040 Circuits Grade - ENCM.xlsx"}},
		{"engi 6861", "final exam", []string{"ENGI 6861 Final Exam.xlsx"}},
		{"ENGI 9000", "Porridge Recipe", nil},
	}

	for _, tt := range tests {
		t.Run(tt.course+" "+tt.assessment, func(t *testing.T) {
			assert.Equal(t, tt.want, FindFiles(tt.course, tt.assessment, files))
		})
	}
}

func TestDirectorySearch(t *testing.T) {
	root := t.TempDir()
	for dir, files := range map[string][]string{
		"ENCM": {"ENGI 1040 Circuits Grade - ENCM.xlsx"},
		"Core": {"ENGI 1040 Circuits Grade - Core.xlsx", "ENGI 1040 Circuits Grade - Core - Custom column names.xlsx"},
		"ECE":  {},
	} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
		for _, f := range files {
			require.NoError(t, os.WriteFile(filepath.Join(root, dir, f), nil, 0o644))
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Core", "ENGI 1040 Circuits Grade.xlsx"), 0o755))

	got, err := DirectorySearch("ENGI 1040", "Circuits Grade", root, []string{"ENCM", "Core", "ECE"})
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{
		"ENCM": {"ENGI 1040 Circuits Grade - ENCM.xlsx"},
		"Core": {
			"ENGI 1040 Circuits Grade - Core - Custom column names.xlsx",
			"ENGI 1040 Circuits Grade - Core.xlsx",
		},
		"ECE": {},
	}, got)

	_, err = DirectorySearch("ENGI 1040", "Circuits Grade", root, []string{"Co-op"})
	assert.Error(t, err)
}

func TestTrueSize(t *testing.T) {
	nan := math.NaN()
	assert.Equal(t, 0, TrueSize(nil))
	assert.Equal(t, 4, TrueSize([]float64{0, -1, 55, nan, 80}))
	assert.Equal(t, 0, TrueSize([]float64{nan, nan}))
}

func TestFromTable(t *testing.T) {
	g := FromTable(&types.Table{
		Columns: []string{"2016", "2017"},
		Rows: [][]string{
			{"72", "91"},
			{"abc", ""},
			{"", "60.5"},
			{"", ""},
		},
	})

	require.Len(t, g.Columns, 2)
	assert.Equal(t, "2016", g.Columns[0].Name)
	require.Len(t, g.Columns[0].Values, 1)
	assert.Equal(t, 72.0, g.Columns[0].Values[0])

	require.Len(t, g.Columns[1].Values, 3)
	assert.Equal(t, 91.0, g.Columns[1].Values[0])
	assert.True(t, types.Missing(g.Columns[1].Values[1]))
	assert.Equal(t, 60.5, g.Columns[1].Values[2])
}

func TestColsToCohorts(t *testing.T) {
	g := &types.GradeTable{Columns: []types.GradeColumn{
		{Name: "2016", Values: []float64{50, 60, math.NaN(), 70}},
		{Name: "201703", Values: []float64{-1, 80}},
	}}

	got, err := ColsToCohorts(g, "ENGI 3424", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"CO2020: 3 STUDENTS", "CO2022: 2 STUDENTS"}, got)

	_, err = ColsToCohorts(g, "ENGI 0010", 0)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	gradesDir := t.TempDir()
	path := filepath.Join(gradesDir, "ENCV", "ENGI 1010 Final Exam.xlsx")
	require.NoError(t, workbook.WriteGrades(path, &types.GradeTable{Columns: []types.GradeColumn{
		{Name: "2017", Values: []float64{45, 67, 88}},
	}}))

	row := types.Row{
		Columns: []string{"Course #", "Method of Assessment"},
		Values:  []string{"ENGI 1010", "Final Exam"},
	}

	g, err := Open(row, "ENCV", OpenOptions{GradesDir: gradesDir})
	require.NoError(t, err)
	require.Len(t, g.Columns, 1)
	assert.Equal(t, []float64{45, 67, 88}, g.Columns[0].Values)

	_, err = Open(row, "ENEL", OpenOptions{GradesDir: gradesDir})
	assert.Error(t, err)

	g, err = Open(types.Row{}, "ENEL", OpenOptions{File: path})
	require.NoError(t, err)
	assert.Equal(t, []string{"2017"}, g.Names())
}

func TestPathCustomColumns(t *testing.T) {
	row := types.Row{
		Columns: []string{"Course", "Assessment"},
		Values:  []string{" ENGI 3891 ", "Midterm"},
	}
	got := Path(row, "ENCM", OpenOptions{
		GradesDir:        "Grades",
		CourseColumn:     "Course",
		AssessmentColumn: "Assessment",
	})
	assert.Equal(t, filepath.Join("Grades", "ENCM", "ENGI 3891 Midterm.xlsx"), got)
}

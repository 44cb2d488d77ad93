// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the ci-report tool:
// spreadsheet tables, grade tables, report configuration, and run summaries.
package types

import (
	"math"
	"strings"
)

// Table is the header row and data rows of a worksheet. Every row has
// exactly len(Columns) cells; short rows are padded with empty strings.
type Table struct {
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the index of the column named name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Row returns a by-name view of row i.
func (t *Table) Row(i int) Row {
	return Row{Columns: t.Columns, Values: t.Rows[i]}
}

// Filter returns a new Table holding only the rows for which keep returns true.
// Row slices are shared with t.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := &Table{Columns: t.Columns}
	for i := range t.Rows {
		if keep(t.Row(i)) {
			out.Rows = append(out.Rows, t.Rows[i])
		}
	}
	return out
}

// Row is one data row of a Table, addressable by column name.
type Row struct {
	Columns []string
	Values  []string
}

// Get returns the trimmed cell under column name, or "" if the column is absent.
func (r Row) Get(name string) string {
	for i, c := range r.Columns {
		if c == name {
			return strings.TrimSpace(r.Values[i])
		}
	}
	return ""
}

// NoData is the grade value recorded when a student has no usable grade.
const NoData = -1.0

// GradeColumn is one column of a grade sheet. Name is an academic year
// ("2017") or a year and semester ("201703"). Missing cells are NaN.
type GradeColumn struct {
	Name   string    `json:"name" yaml:"name"`
	Values []float64 `json:"values" yaml:"values"`
}

// GradeTable is the ordered set of columns of a grade sheet.
type GradeTable struct {
	Columns []GradeColumn `json:"columns" yaml:"columns"`
}

// Names returns the column names in order.
func (g *GradeTable) Names() []string {
	names := make([]string, len(g.Columns))
	for i, c := range g.Columns {
		names[i] = c.Name
	}
	return names
}

// Missing reports whether v marks an empty cell.
func Missing(v float64) bool {
	return math.IsNaN(v)
}

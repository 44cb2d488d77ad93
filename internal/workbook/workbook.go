// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workbook reads and writes the .xlsx spreadsheets that hold
// indicator lookups and grades. Only the first worksheet of a workbook is
// used; its first non-empty row is the header.
package workbook

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/ci-report/pkg/types"
)

// Ext is the file extension of every workbook the tool reads or writes.
const Ext = ".xlsx"

// defaultSheet is the sheet excelize creates in a new file.
const defaultSheet = "Sheet1"

// ReadTable reads the first worksheet of the workbook at path.
func ReadTable(path string) (*types.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no worksheets", path)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q of %s: %w", sheets[0], path, err)
	}
	return tableFromRows(rows), nil
}

// tableFromRows turns raw sheet rows into a Table. Leading blank rows are
// skipped, unnamed header cells become "Unnamed: <index>", and fully blank
// data rows are dropped.
func tableFromRows(rows [][]string) *types.Table {
	t := &types.Table{}

	start := 0
	for start < len(rows) && blank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return t
	}

	header := rows[start]
	t.Columns = make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		t.Columns[i] = h
	}

	for _, raw := range rows[start+1:] {
		if blank(raw) {
			continue
		}
		row := make([]string, len(t.Columns))
		copy(row, raw)
		t.Rows = append(t.Rows, row)
	}
	return t
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// WriteTable writes t to a new single-sheet workbook at path. Cells that
// parse as numbers are stored as numbers.
func WriteTable(path string, t *types.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(defaultSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for r, row := range t.Rows {
		values := make([]any, len(row))
		for i, v := range row {
			values[i] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(defaultSheet, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", r+2, err)
		}
	}

	return save(f, path)
}

// WriteGrades writes g to a new single-sheet workbook at path, one grade
// column per sheet column. NaN values are left blank, so columns of
// different lengths line up the way they were read.
func WriteGrades(path string, g *types.GradeTable) error {
	f := excelize.NewFile()
	defer f.Close()

	for c, col := range g.Columns {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(defaultSheet, cell, col.Name); err != nil {
			return fmt.Errorf("writing header %q: %w", col.Name, err)
		}
		for r, v := range col.Values {
			if math.IsNaN(v) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(defaultSheet, cell, v); err != nil {
				return fmt.Errorf("writing %s: %w", cell, err)
			}
		}
	}

	return save(f, path)
}

// cellValue stores numeric strings as numbers and everything else as text.
func cellValue(s string) any {
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return n
	}
	return s
}

// save writes the workbook to a temp file next to path and renames it into
// place so a failed write never leaves a truncated workbook behind.
func save(f *excelize.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("encoding workbook %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}

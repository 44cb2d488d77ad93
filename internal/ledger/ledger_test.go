// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ci-report/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "index"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store, dir
}

func beginRun(t *testing.T, s *Store) string {
	t.Helper()
	id, err := s.BeginRun(context.Background(), "default")
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func sampleRecord(runID, path, program, indicator, course string) types.ReportRecord {
	return types.ReportRecord{
		Path:          path,
		RunID:         runID,
		ConfigName:    "default",
		Program:       program,
		Indicator:     indicator,
		Level:         "I",
		Course:        course,
		Assessment:    "Final Exam",
		GradesFile:    "Grades/" + program + "/" + course + " Final Exam.xlsx",
		GradesModTime: "2026-09-01T12:00:00Z",
		BinLabels:     []string{"Below Expectations", "Meets Expectations"},
		Series:        []types.Series{{Name: "CO2021: 40 STUDENTS", Percents: []float64{12.5, 87.5}}},
		GeneratedAt:   time.Date(2026, 9, 2, 8, 0, 0, 0, time.UTC),
	}
}

func record(t *testing.T, s *Store, recs ...types.ReportRecord) {
	t.Helper()
	for _, r := range recs {
		if err := s.Record(context.Background(), r); err != nil {
			t.Fatal(err)
		}
	}
}

// --- tests ---

func TestNewStoreCreatesDatabase(t *testing.T) {
	_, dir := testSetup(t)
	if _, err := os.Stat(filepath.Join(dir, "index", dbFile)); err != nil {
		t.Fatalf("database not created: %v", err)
	}
}

func TestRecordAndLookup(t *testing.T) {
	s, _ := testSetup(t)
	ctx := context.Background()
	runID := beginRun(t, s)

	rec := sampleRecord(runID, "Histograms/KB.1-I Report - default.pdf", "ENCV", "KB.1 - Mathematics", "ENGI 1010")
	record(t, s, rec)

	got, err := s.Lookup(ctx, rec.Path)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected a record")
	}
	if got.Course != "ENGI 1010" || got.RunID != runID {
		t.Errorf("got course %q run %q", got.Course, got.RunID)
	}
	if len(got.Series) != 1 || got.Series[0].Percents[1] != 87.5 {
		t.Errorf("series not round-tripped: %+v", got.Series)
	}
	if !got.GeneratedAt.Equal(rec.GeneratedAt) {
		t.Errorf("generated_at = %v, want %v", got.GeneratedAt, rec.GeneratedAt)
	}

	missing, err := s.Lookup(ctx, "nope.pdf")
	if err != nil || missing != nil {
		t.Errorf("Lookup(missing) = %v, %v", missing, err)
	}
}

func TestRecordReplacesByPath(t *testing.T) {
	s, _ := testSetup(t)
	ctx := context.Background()
	first := beginRun(t, s)
	second := beginRun(t, s)

	rec := sampleRecord(first, "out.pdf", "ENCV", "KB.1", "ENGI 1010")
	record(t, s, rec)
	rec.RunID = second
	rec.GradesModTime = "2026-10-01T00:00:00Z"
	record(t, s, rec)

	all, err := s.Retrieve(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d records, want 1", len(all))
	}
	if all[0].RunID != second || all[0].GradesModTime != "2026-10-01T00:00:00Z" {
		t.Errorf("record not replaced: %+v", all[0])
	}
}

func TestUnchanged(t *testing.T) {
	s, dir := testSetup(t)
	ctx := context.Background()
	runID := beginRun(t, s)

	path := filepath.Join(dir, "KB.1-I Report - default.pdf")
	rec := sampleRecord(runID, path, "ENCV", "KB.1", "ENGI 1010")
	record(t, s, rec)

	tests := []struct {
		name       string
		writeFile  bool
		modTime    string
		configName string
		want       bool
	}{
		{"report file missing", false, rec.GradesModTime, "default", false},
		{"same inputs", true, rec.GradesModTime, "default", true},
		{"grades changed", true, "2027-01-01T00:00:00Z", "default", false},
		{"config changed", true, rec.GradesModTime, "by cohort", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.writeFile {
				if err := os.WriteFile(path, []byte("%PDF"), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			got, err := s.Unchanged(ctx, path, tt.modTime, tt.configName)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Unchanged = %v, want %v", got, tt.want)
			}
		})
	}

	got, err := s.Unchanged(ctx, filepath.Join(dir, "never.pdf"), rec.GradesModTime, "default")
	if err != nil || got {
		t.Errorf("Unchanged(unrecorded) = %v, %v", got, err)
	}
}

func TestRetrieveFilters(t *testing.T) {
	s, _ := testSetup(t)
	ctx := context.Background()
	runID := beginRun(t, s)
	record(t, s,
		sampleRecord(runID, "a.pdf", "ENCV", "KB.1 - Mathematics", "ENGI 1010"),
		sampleRecord(runID, "b.pdf", "ENCV", "PA.1 - Formulation", "ENGI 8700"),
		sampleRecord(runID, "c.pdf", "ENEL", "KB.2 - Sciences", "ENGI 1010"),
	)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"a.pdf", "b.pdf", "c.pdf"}},
		{"program", Filter{Program: "ENCV"}, []string{"a.pdf", "b.pdf"}},
		{"indicator prefix", Filter{Indicator: "KB"}, []string{"a.pdf", "c.pdf"}},
		{"course", Filter{Course: "ENGI 8700"}, []string{"b.pdf"}},
		{"limit", Filter{Limit: 1}, []string{"a.pdf"}},
		{"run", Filter{RunID: "other"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Retrieve(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			var paths []string
			for _, r := range got {
				paths = append(paths, r.Path)
			}
			if len(paths) != len(tt.want) {
				t.Fatalf("got %v, want %v", paths, tt.want)
			}
			for i := range paths {
				if paths[i] != tt.want[i] {
					t.Errorf("got %v, want %v", paths, tt.want)
				}
			}
		})
	}
}

func TestRuns(t *testing.T) {
	s, _ := testSetup(t)
	ctx := context.Background()

	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	older := beginRun(t, s)
	newer := beginRun(t, s)
	if err := s.FinishRun(ctx, types.RunSummary{RunID: older, Generated: 3, Skipped: 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.FinishRun(ctx, types.RunSummary{RunID: "missing"}); err == nil {
		t.Error("expected error finishing an unknown run")
	}

	runs, err := s.Runs(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].RunID != newer || !runs[0].FinishedAt.IsZero() {
		t.Errorf("newest run first and unfinished, got %+v", runs[0])
	}
	if runs[1].Generated != 3 || runs[1].Skipped != 1 || runs[1].FinishedAt.IsZero() {
		t.Errorf("finished run counts not stored: %+v", runs[1])
	}

	limited, err := s.Runs(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("got %d runs with limit 1", len(limited))
	}
}

func TestExport(t *testing.T) {
	s, dir := testSetup(t)
	ctx := context.Background()
	runID := beginRun(t, s)
	record(t, s,
		sampleRecord(runID, "a.pdf", "ENCV", "KB.1", "ENGI 1010"),
		sampleRecord(runID, "b.pdf", "ENEL", "KB.2", "ENGI 1010"),
	)

	yamlPath, err := s.ExportYAML(ctx, Filter{Program: "ENCV"})
	if err != nil {
		t.Fatal(err)
	}
	if yamlPath != filepath.Join(dir, "index", "export.yaml") {
		t.Errorf("yaml path = %s", yamlPath)
	}
	data, err := os.ReadFile(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	var fromYAML Export
	if err := yaml.Unmarshal(data, &fromYAML); err != nil {
		t.Fatal(err)
	}
	if len(fromYAML.Reports) != 1 || fromYAML.Reports[0].Path != "a.pdf" {
		t.Errorf("yaml reports = %+v", fromYAML.Reports)
	}
	if len(fromYAML.Runs) != 1 {
		t.Errorf("yaml runs = %+v", fromYAML.Runs)
	}

	jsonPath, err := s.ExportJSON(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	data, err = os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var fromJSON Export
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatal(err)
	}
	if len(fromJSON.Reports) != 2 {
		t.Errorf("json reports = %d, want 2", len(fromJSON.Reports))
	}
	if fromJSON.Runs[0].RunID != runID {
		t.Errorf("json run id = %q, want %q", fromJSON.Runs[0].RunID, runID)
	}
}

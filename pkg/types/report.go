// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HeaderField is one key/value pair of a report header.
type HeaderField struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Header is the ordered list of fields printed above a histogram.
type Header []HeaderField

// Get returns the value stored under key, or "".
func (h Header) Get(key string) string {
	for _, f := range h {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

// Set replaces the value under key, appending the field if it is absent.
func (h *Header) Set(key, value string) {
	for i := range *h {
		if (*h)[i].Key == key {
			(*h)[i].Value = value
			return
		}
	}
	*h = append(*h, HeaderField{Key: key, Value: value})
}

// Series is one plotted column of a histogram: per-bin percentages of a cohort.
type Series struct {
	Name     string    `json:"name" yaml:"name"`
	Percents []float64 `json:"percents" yaml:"percents"`
}

// ReportRecord describes one generated report in the ledger.
type ReportRecord struct {
	// Path is the output file; it is the record's key.
	Path          string    `json:"path" yaml:"path"`
	RunID         string    `json:"run_id" yaml:"run_id"`
	ConfigName    string    `json:"config_name" yaml:"config_name"`
	Program       string    `json:"program" yaml:"program"`
	Indicator     string    `json:"indicator" yaml:"indicator"`
	Level         string    `json:"level" yaml:"level"`
	Course        string    `json:"course" yaml:"course"`
	Assessment    string    `json:"assessment" yaml:"assessment"`
	GradesFile    string    `json:"grades_file" yaml:"grades_file"`
	GradesModTime string    `json:"grades_mod_time" yaml:"grades_mod_time"`
	BinLabels     []string  `json:"bin_labels" yaml:"bin_labels"`
	Series        []Series  `json:"series" yaml:"series"`
	GeneratedAt   time.Time `json:"generated_at" yaml:"generated_at"`
}

// RunSummary holds counts from a report generation run.
type RunSummary struct {
	RunID     string `json:"run_id" yaml:"run_id"`
	Generated int    `json:"generated" yaml:"generated"`
	Unchanged int    `json:"unchanged" yaml:"unchanged"`
	Skipped   int    `json:"skipped" yaml:"skipped"`
	Failed    int    `json:"failed" yaml:"failed"`
}

// Total returns the number of indicator rows processed.
func (s RunSummary) Total() int {
	return s.Generated + s.Unchanged + s.Skipped + s.Failed
}

// HasFailures reports whether any report failed.
func (s RunSummary) HasFailures() bool {
	return s.Failed > 0
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report builds one histogram report: the grade distribution of
// every cohort that took an assessment, binned by the indicator's
// expectation levels, with the indicator header printed above it.
package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/ci-report/internal/config"
	"github.com/pdiddy/ci-report/internal/grades"
	"github.com/pdiddy/ci-report/internal/textfmt"
	"github.com/pdiddy/ci-report/pkg/types"
)

// NoDataLabel names the bin that collects the no-data sentinel.
const NoDataLabel = "No Data Available"

// BinLabels names the expectation levels, lowest first.
var BinLabels = []string{
	"Below Expectations",
	"Marginally Meets Expectations",
	"Meets Expectations",
	"Exceeds Expectations",
}

// ErrBins is returned for bin edges a histogram cannot be built from.
var ErrBins = errors.New("invalid bin edges")

// Report is a histogram of one assessment together with its annotations.
// Create it with New, fill it with Plot, then add annotations and Save.
type Report struct {
	cfg    *types.ReportConfig
	header types.Header
	bins   []float64
	labels []string

	plotLabels []string
	series     []types.Series

	headerLabels string
	headerDescs  string
	headerTitle  string
	binRanges    string
	title        string
}

// New prepares a report for header and bins. Four edges are taken as the
// upper edges of the bins and get 0 prepended. A nil cfg uses the defaults.
func New(header types.Header, bins []float64, cfg *types.ReportConfig) (*Report, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	edges := append([]float64(nil), bins...)
	if len(edges) == 4 {
		edges = append([]float64{0}, edges...)
	}
	if len(edges) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 edges, got %v", ErrBins, bins)
	}
	if len(edges)-1 > len(BinLabels) {
		return nil, fmt.Errorf("%w: %d bins but only %d expectation levels", ErrBins, len(edges)-1, len(BinLabels))
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return nil, fmt.Errorf("%w: edges must increase, got %v", ErrBins, bins)
		}
	}

	return &Report{
		cfg:    cfg,
		header: append(types.Header(nil), header...),
		bins:   edges,
		labels: append([]string(nil), BinLabels[:len(edges)-1]...),
	}, nil
}

// Bins returns the bin edges, including any prepended 0.
func (r *Report) Bins() []float64 { return r.bins }

// Labels returns the x axis labels of the plotted bins, with the no-data
// bin first when it is shown. It is empty until Plot runs.
func (r *Report) Labels() []string { return r.plotLabels }

// Series returns the plotted series, one per grade column.
func (r *Report) Series() []types.Series { return r.series }

// Plot bins every column of g and converts the counts to percentages of
// the column's size. At most MaxPlots columns are used, keeping the last
// (most recent) ones. When ShowNDA is set the no-data sentinel gets its
// own bin; it is kept for every series if any series reaches
// NDAThreshold in it, and dropped otherwise.
func (r *Report) Plot(g *types.GradeTable) error {
	if g == nil || len(g.Columns) == 0 {
		return fmt.Errorf("no grade columns to plot")
	}
	cols := g.Columns
	if len(cols) > r.cfg.MaxPlots {
		cols = cols[len(cols)-r.cfg.MaxPlots:]
	}

	edges := r.bins
	nda := r.cfg.ShowNDA && edges[0] > types.NoData
	if nda {
		edges = append([]float64{types.NoData}, edges...)
	}

	series := make([]types.Series, len(cols))
	keepNDA := false
	for i, col := range cols {
		pct := Percents(Histogram(col.Values, edges), grades.TrueSize(col.Values))
		if nda && pct[0] >= r.cfg.NDAThreshold*100 {
			keepNDA = true
		}
		series[i] = types.Series{Name: col.Name, Percents: pct}
	}

	labels := append([]string(nil), r.labels...)
	switch {
	case keepNDA:
		labels = append([]string{NoDataLabel}, labels...)
	case nda:
		for i := range series {
			series[i].Percents = series[i].Percents[1:]
		}
	}

	r.series = series
	r.plotLabels = labels
	return nil
}

// AddHeader lays out the indicator header above the plot.
func (r *Report) AddHeader() {
	r.headerLabels, r.headerDescs, r.headerTitle = textfmt.FormatAnnotationText(r.header, r.cfg.TextwrapLim)
}

// AddBinRanges adds the mark range of every bin below the plot.
func (r *Report) AddBinRanges() error {
	text, err := textfmt.FormatBinRanges(r.bins, r.labels)
	if err != nil {
		return err
	}
	r.binRanges = text
	return nil
}

// AddTitle adds the configured graph title. A "{}" in the title is
// replaced by cohort.
func (r *Report) AddTitle(cohort string) {
	r.title = strings.Replace(r.cfg.GraphTitle, "{}", cohort, 1)
}

// headerText zips the label and description columns into one block.
func (r *Report) headerText() string {
	if r.headerLabels == "" && r.headerDescs == "" {
		return ""
	}
	labels := strings.Split(r.headerLabels, textfmt.LineBreak)
	descs := strings.Split(r.headerDescs, textfmt.LineBreak)
	lines := make([]string, 0, len(labels))
	for i := range labels {
		d := ""
		if i < len(descs) {
			d = descs[i]
		}
		lines = append(lines, strings.TrimRight(fmt.Sprintf("%-13s %s", labels[i], d), " "))
	}
	return strings.Join(lines, textfmt.LineBreak)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textfmt formats the text printed on histogram reports: the header
// table, bar percentages, and the bin range legend. It also maps grade
// sheet periods to graduating cohorts.
package textfmt

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"github.com/pdiddy/ci-report/pkg/types"
)

// LineBreak separates lines in multi-line report text.
const LineBreak = "\n"

const (
	// GraduateAttribute is the header key printed as the report title.
	GraduateAttribute = "Graduate Attribute"

	labelWidth       = 12
	descriptionWidth = 60
)

// Wrap splits s into lines of at most width runes, breaking on spaces and
// hyphens where possible and hard-breaking words longer than width. Blank
// input yields no lines.
func Wrap(s string, width int) []string {
	if width <= 0 {
		width = descriptionWidth
	}
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return nil
	}
	wrapped := wrap.String(wordwrap.String(s, width), width)

	var lines []string
	for _, line := range strings.Split(wrapped, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// FormatAnnotationText lays the header out as two aligned columns. It
// returns the label column, the description column, and the Graduate
// Attribute value separately so it can be set in a larger font. The
// Graduate Attribute row keeps its label but has a blank description.
// Descriptions wrap at width runes (60 when width <= 0).
func FormatAnnotationText(header types.Header, width int) (labels, descriptions, title string) {
	if width <= 0 {
		width = descriptionWidth
	}
	title = header.Get(GraduateAttribute)

	var labelLines, descLines []string
	for _, f := range header {
		value := f.Value
		if f.Key == GraduateAttribute {
			value = " "
		}
		labelLines = append(labelLines, Wrap(f.Key+":", labelWidth)...)
		descLines = append(descLines, Wrap(value, width)...)

		for len(labelLines) < len(descLines) {
			labelLines = append(labelLines, " ")
		}
		for len(descLines) < len(labelLines) {
			descLines = append(descLines, " ")
		}
	}

	return strings.Join(labelLines, LineBreak), strings.Join(descLines, LineBreak), title
}

// FormatPercents renders each value as a whole-number percentage.
func FormatPercents(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%.0f%%", v)
	}
	return out
}

// FormatBinRanges describes the mark range of every bin. bins holds the
// bin edges and must have at least len(labels)+1 entries. Integer marks
// are assumed, so each bin but the last ends one below the next edge.
// When the first edge is zero or below, the first bin reads as below the
// second edge ("<50: label").
func FormatBinRanges(bins []float64, labels []string) (string, error) {
	n := len(labels)
	if n == 0 {
		return "", fmt.Errorf("no bin labels")
	}
	if len(bins) < n+1 {
		return "", fmt.Errorf("%d bin edges cannot describe %d bins", len(bins), n)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Bin ranges: marks out of %.0f%s", bins[n], LineBreak)

	for i := 0; i < n; i++ {
		switch {
		case i == 0 && bins[0] <= 0:
			fmt.Fprintf(&b, "<%.0f: %s", bins[1], labels[0])
		case i == n-1:
			fmt.Fprintf(&b, "%.0f-%.0f: %s", bins[i], bins[i+1], labels[i])
		default:
			fmt.Fprintf(&b, "%.0f-%.0f: %s", bins[i], bins[i+1]-1, labels[i])
		}
		if i < n-1 {
			b.WriteString("   ")
		}
	}
	return b.String(), nil
}

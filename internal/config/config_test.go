// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ci-report/pkg/types"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "default", cfg.Name)
	assert.Equal(t, "year", cfg.PlotGradesBy)
	assert.Equal(t, 16.0, cfg.AnnotationFont)
	assert.Equal(t, 150.0, cfg.DPI)
	assert.Equal(t, types.Landscape, cfg.Orientation)
	assert.Equal(t, "pdf", cfg.Format)
	assert.Equal(t, 5, cfg.MaxPlots)
	assert.True(t, cfg.AddTitle)
	assert.True(t, cfg.AddPercents)
	assert.True(t, cfg.AddLegend)
	assert.True(t, cfg.AddBinRanges)
	assert.True(t, cfg.ShowNDA)
	assert.Equal(t, 0.1, cfg.NDAThreshold)
	assert.Equal(t, "Graduate Attribute, Indicator, Level, Program, Course, Assessment", cfg.HeaderAttribs)
	assert.Equal(t, "GRADE DISTRIBUTION", cfg.GraphTitle)
	assert.Equal(t, 72, cfg.TextwrapLim)
	assert.Equal(t, "Core, Co-op, ECE", cfg.GradeBackupDirs)

	w, h := cfg.PaperSize()
	assert.Equal(t, 11.69, w)
	assert.Equal(t, 8.27, h)
}

func TestFontSizesFor(t *testing.T) {
	got := FontSizesFor(16)
	assert.InDelta(t, 19.2, got.GraphTitle, 1e-9)
	assert.Equal(t, 16.0, got.YAxisTitle)
	assert.Equal(t, 24.0, got.GAText)
	assert.Equal(t, 16.0, got.Annotations)
	assert.Equal(t, 13.0, got.AxisLabels)
	assert.Equal(t, 13.0, got.BarCounts)
	assert.Equal(t, 16.0, got.LegendText)
}

func TestLoadOverride(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		check   func(t *testing.T, cfg *types.ReportConfig)
	}{
		{
			name:    "json override keeps unspecified defaults",
			file:    "by_cohort.json",
			content: `{"name": "by cohort", "show_NDA": false, "annotation_font": 12, "orientation": "portrait"}`,
			check: func(t *testing.T, cfg *types.ReportConfig) {
				assert.Equal(t, "by cohort", cfg.Name)
				assert.False(t, cfg.ShowNDA)
				assert.Equal(t, 10.0, cfg.FontSizes.AxisLabels)
				assert.Equal(t, types.Portrait, cfg.Orientation)
				assert.Equal(t, 0.1, cfg.NDAThreshold)
				assert.True(t, cfg.AddLegend)
			},
		},
		{
			name:    "yaml override",
			file:    "slides.yaml",
			content: "name: slides\nformat: png\nNDA_threshold: 0.25\nmax_plots: 3\n",
			check: func(t *testing.T, cfg *types.ReportConfig) {
				assert.Equal(t, "slides", cfg.Name)
				assert.Equal(t, "png", cfg.Format)
				assert.Equal(t, 0.25, cfg.NDAThreshold)
				assert.Equal(t, 3, cfg.MaxPlots)
				assert.Equal(t, "GRADE DISTRIBUTION", cfg.GraphTitle)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, tt.file), []byte(tt.content), 0o644))

			cfg, err := Load(dir, tt.file)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir, "missing.json")
	assert.Error(t, err)

	bad := map[string]string{
		"orientation.json": `{"orientation": "sideways"}`,
		"dpi.json":         `{"dpi": 0}`,
		"nda.json":         `{"NDA_threshold": 1.5}`,
		"format.json":      `{"format": "docx"}`,
		"plots.json":       `{"max_plots": 0}`,
		"syntax.json":      `{"name": `,
	}
	for file, content := range bad {
		require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
		_, err := Load(dir, file)
		assert.Error(t, err, file)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Name = "saved"
	cfg.AddPercents = false

	for _, file := range []string{"saved.json", "saved.yaml"} {
		require.NoError(t, Write(cfg, filepath.Join(dir, file)))
		got, err := Load(dir, file)
		require.NoError(t, err, file)
		assert.Equal(t, cfg, got, file)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads ReportConfig values. The embedded default.json is
// always read first; a named configuration file from the config directory
// is merged on top, so it only needs the keys it changes.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ci-report/pkg/types"
)

//go:embed default.json
var defaultJSON []byte

// Formats lists the output formats a report can be saved in.
var Formats = []string{"pdf", "png", "svg", "eps", "jpg", "jpeg", "tif", "tiff"}

// Default returns the built-in configuration.
func Default() *types.ReportConfig {
	cfg, err := Load("", "")
	if err != nil {
		panic(fmt.Sprintf("embedded default.json is invalid: %v", err))
	}
	return cfg
}

// Load reads the defaults and, when name is non-empty, merges the file
// dir/name over them. The file type follows the extension (JSON, YAML or
// TOML); names without an extension are read as JSON. An absolute name
// ignores dir.
func Load(dir, name string) (*types.ReportConfig, error) {
	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(defaultJSON)); err != nil {
		return nil, fmt.Errorf("reading default config: %w", err)
	}

	if name != "" {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, name)
		}
		if err := merge(v, path); err != nil {
			return nil, err
		}
	}

	var cfg types.ReportConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding report config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	cfg.FontSizes = FontSizesFor(cfg.AnnotationFont)
	return &cfg, nil
}

func merge(v *viper.Viper, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening report config: %w", err)
	}
	defer f.Close()

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		ext = "json"
	}
	v.SetConfigType(ext)
	if err := v.MergeConfig(f); err != nil {
		return fmt.Errorf("parsing report config %s: %w", path, err)
	}
	return nil
}

// Validate rejects configurations that cannot produce a report.
func Validate(cfg *types.ReportConfig) error {
	if cfg.AnnotationFont <= 0 {
		return fmt.Errorf("annotation_font must be positive, got %v", cfg.AnnotationFont)
	}
	if cfg.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %v", cfg.DPI)
	}
	if _, ok := types.PaperDimensions[cfg.Orientation]; !ok {
		return fmt.Errorf("orientation must be %q or %q, got %q", types.Landscape, types.Portrait, cfg.Orientation)
	}
	if cfg.NDAThreshold < 0 || cfg.NDAThreshold > 1 {
		return fmt.Errorf("NDA_threshold must be between 0 and 1, got %v", cfg.NDAThreshold)
	}
	if cfg.MaxPlots < 1 {
		return fmt.Errorf("max_plots must be at least 1, got %d", cfg.MaxPlots)
	}
	if !supportedFormat(cfg.Format) {
		return fmt.Errorf("unsupported format %q: use one of %s", cfg.Format, strings.Join(Formats, ", "))
	}
	return nil
}

func supportedFormat(format string) bool {
	for _, f := range Formats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}

// FontSizesFor derives every report font size from the annotation font.
func FontSizesFor(annotationFont float64) types.FontSizes {
	small := math.Floor(annotationFont / 1.2)
	return types.FontSizes{
		GraphTitle:  annotationFont * 1.2,
		YAxisTitle:  annotationFont,
		GAText:      annotationFont * 1.5,
		Annotations: annotationFont,
		AxisLabels:  small,
		BarCounts:   small,
		LegendText:  annotationFont,
	}
}

// Write saves cfg to path as YAML (.yaml, .yml) or JSON (anything else).
func Write(cfg *types.ReportConfig, path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "    ")
	}
	if err != nil {
		return fmt.Errorf("encoding report config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

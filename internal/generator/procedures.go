// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generator

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pdiddy/ci-report/internal/config"
	"github.com/pdiddy/ci-report/pkg/types"
)

// ByCohortConfig is the report configuration used by HistogramByCohort.
const ByCohortConfig = "by_cohort.json"

// HistogramByCohort generates every whitelisted report with the
// by_cohort.json configuration from configDir. Without that file the
// defaults are used.
func HistogramByCohort(ctx context.Context, configDir string, opts Options, w io.Writer) (types.RunSummary, error) {
	name := ByCohortConfig
	if _, err := os.Stat(filepath.Join(configDir, name)); errors.Is(err, fs.ErrNotExist) {
		name = ""
	}
	cfg, err := config.Load(configDir, name)
	if err != nil {
		return types.RunSummary{}, err
	}
	g, err := New(cfg, opts)
	if err != nil {
		return types.RunSummary{}, err
	}
	return g.Autogenerate(ctx, w)
}

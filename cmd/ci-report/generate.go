// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ci-report/internal/config"
	"github.com/pdiddy/ci-report/internal/generator"
	"github.com/pdiddy/ci-report/internal/ledger"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render histogram reports for whitelisted indicators",
	Long: `Generate queries the indicator sheet of each selected program, opens the
grade workbook behind every indicator row, and writes one histogram report
per row to the histograms directory.

The report layout comes from the embedded defaults overridden by
--config-name from the config directory. --by-cohort uses by_cohort.json.
Rows without bins or without a grade workbook are skipped. Reports whose
grade workbook has not changed since the last run are left alone unless
--force is given.`,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	p := paths()
	configName, _ := cmd.Flags().GetString("config-name")
	byCohort, _ := cmd.Flags().GetBool("by-cohort")
	force, _ := cmd.Flags().GetBool("force")
	noLedger, _ := cmd.Flags().GetBool("no-ledger")

	opts := generator.Options{
		Whitelist:     whitelistFromFlags(cmd),
		IndicatorsDir: p.IndicatorsDir,
		GradesDir:     p.GradesDir,
		HistogramsDir: p.HistogramsDir,
		Force:         force,
		Logger:        logger,
	}
	if !noLedger {
		store, err := ledger.NewStore(p.IndexDir)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Ledger = store
	}

	ctx := context.Background()
	if byCohort {
		summary, err := generator.HistogramByCohort(ctx, p.ConfigDir, opts, os.Stdout)
		if err != nil {
			return err
		}
		if summary.HasFailures() {
			return fmt.Errorf("%d report(s) failed", summary.Failed)
		}
		return nil
	}

	cfg, err := config.Load(p.ConfigDir, configName)
	if err != nil {
		return err
	}
	g, err := generator.New(cfg, opts)
	if err != nil {
		return err
	}
	summary, err := g.Autogenerate(ctx, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d report(s) failed", summary.Failed)
	}
	return nil
}

// whitelistFromFlags builds the generator whitelist. Only non-empty
// filters are included so an unfiltered run selects every row.
func whitelistFromFlags(cmd *cobra.Command) map[string][]string {
	wl := make(map[string][]string)
	if v, _ := cmd.Flags().GetStringSlice("programs"); len(v) > 0 {
		wl[generator.ProgramsKey] = v
	}
	for _, key := range []string{"indicator", "level", "course", "assessment"} {
		if v, _ := cmd.Flags().GetStringSlice(key); len(v) > 0 {
			wl[key] = v
		}
	}
	return wl
}

// addWhitelistFlags registers the row filters shared by generate and
// indicators.
func addWhitelistFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("programs", nil, "programs to process (default: all)")
	cmd.Flags().StringSlice("indicator", nil, "indicator number patterns, e.g. KB.1")
	cmd.Flags().StringSlice("level", nil, "indicator levels (I, D, A)")
	cmd.Flags().StringSlice("course", nil, "course patterns, e.g. ENGI 1010")
	cmd.Flags().StringSlice("assessment", nil, "method of assessment patterns")
}

func init() {
	addWhitelistFlags(generateCmd)
	generateCmd.Flags().String("config-name", "", "report configuration file in the config directory (default: built-in defaults)")
	generateCmd.Flags().Bool("by-cohort", false, "use "+generator.ByCohortConfig+" from the config directory")
	generateCmd.Flags().Bool("force", false, "regenerate reports whose grades are unchanged")
	generateCmd.Flags().Bool("no-ledger", false, "do not record reports in the ledger")

	rootCmd.AddCommand(generateCmd)
}

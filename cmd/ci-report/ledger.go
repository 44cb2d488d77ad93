// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ci-report/internal/ledger"
	"github.com/pdiddy/ci-report/pkg/types"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the record of generated reports (list, runs, export)",
	Long: `Ledger reads the SQLite database in the index directory where generate
records every report it writes and every run it performs.`,
}

// --- list subcommand ---

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded reports",
	RunE:  runLedgerList,
}

func runLedgerList(cmd *cobra.Command, args []string) error {
	store, err := ledger.NewStore(paths().IndexDir)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Retrieve(context.Background(), filterFromFlags(cmd))
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRecords(records, jsonOutput)
}

func formatRecords(records []types.ReportRecord, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No reports recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-6s  %-20s  %-5s  %-10s  %-19s  %s\n",
		"Prog", "Indicator", "Level", "Course", "Generated", "Path")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, r := range records {
		fmt.Fprintf(os.Stdout, "%-6s  %-20s  %-5s  %-10s  %-19s  %s\n",
			r.Program, clip(r.Indicator, 20), r.Level, r.Course,
			r.GeneratedAt.Local().Format("2006-01-02 15:04:05"), r.Path)
	}
	fmt.Fprintf(os.Stdout, "\n%d reports\n", len(records))
	return nil
}

// --- runs subcommand ---

var ledgerRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List generation runs, most recent first",
	RunE:  runLedgerRuns,
}

func runLedgerRuns(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := ledger.NewStore(paths().IndexDir)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  %-16s  generated: %d, unchanged: %d, skipped: %d, failed: %d\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.RunID, r.ConfigName,
			r.Generated, r.Unchanged, r.Skipped, r.Failed)
	}
	return nil
}

// --- export subcommand ---

var ledgerExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the ledger to YAML or JSON",
	Long: `Export writes every run and the recorded reports (or a filtered subset)
to export.yaml or export.json in the index directory.`,
	RunE: runLedgerExport,
}

func runLedgerExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := ledger.NewStore(paths().IndexDir)
	if err != nil {
		return err
	}
	defer store.Close()

	f := filterFromFlags(cmd)
	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(context.Background(), f)
	case "json":
		path, err = store.ExportJSON(context.Background(), f)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", path)
	return nil
}

// --- shared helpers ---

func filterFromFlags(cmd *cobra.Command) ledger.Filter {
	program, _ := cmd.Flags().GetString("program")
	indicator, _ := cmd.Flags().GetString("indicator")
	course, _ := cmd.Flags().GetString("course")
	runID, _ := cmd.Flags().GetString("run")
	limit, _ := cmd.Flags().GetInt("limit")
	return ledger.Filter{
		Program:   program,
		Indicator: indicator,
		Course:    course,
		RunID:     runID,
		Limit:     limit,
	}
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("program", "", "filter by program")
	cmd.Flags().String("indicator", "", "filter by indicator prefix")
	cmd.Flags().String("course", "", "filter by course")
	cmd.Flags().String("run", "", "filter by run ID")
	cmd.Flags().Int("limit", 0, "maximum records (0 = all)")
}

func init() {
	addFilterFlags(ledgerListCmd)
	ledgerListCmd.Flags().Bool("json", false, "output records as JSON")

	ledgerRunsCmd.Flags().Int("limit", 10, "maximum runs (0 = all)")

	addFilterFlags(ledgerExportCmd)
	ledgerExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	ledgerCmd.AddCommand(ledgerListCmd)
	ledgerCmd.AddCommand(ledgerRunsCmd)
	ledgerCmd.AddCommand(ledgerExportCmd)

	rootCmd.AddCommand(ledgerCmd)
}

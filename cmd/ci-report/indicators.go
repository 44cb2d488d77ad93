// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ci-report/internal/datastore"
	"github.com/pdiddy/ci-report/internal/generator"
	"github.com/pdiddy/ci-report/pkg/types"
)

var indicatorsCmd = &cobra.Command{
	Use:   "indicators",
	Short: "List indicator rows matching the whitelist filters",
	Long: `Indicators loads the indicator sheet of each selected program and prints
the rows that survive the --indicator, --level, --course and --assessment
filters. Filter values are regular expressions matched against the first
column whose name contains the filter key.`,
	RunE: runIndicators,
}

// indicatorRow is the JSON form of one listed row.
type indicatorRow struct {
	Program string            `json:"program"`
	Values  map[string]string `json:"values"`
}

func runIndicators(cmd *cobra.Command, args []string) error {
	p := paths()
	wl := whitelistFromFlags(cmd)
	ds, err := datastore.New(datastore.Options{
		Programs:      wl[generator.ProgramsKey],
		IndicatorsDir: p.IndicatorsDir,
		GradesDir:     p.GradesDir,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	var rows []indicatorRow
	queries := generator.QueriesFrom(wl)
	for _, program := range ds.Programs() {
		t, err := ds.Query(program, queries)
		if err != nil {
			return err
		}
		for i := 0; i < t.Len(); i++ {
			rows = append(rows, indicatorRow{Program: program, Values: rowMap(t.Row(i))})
		}
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("No indicators found.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-6s  %-8s  %-5s  %-12s  %-30s  %s\n",
		"Prog", "Ind", "Level", "Course", "Assessment", "Bins")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, r := range rows {
		fmt.Fprintf(os.Stdout, "%-6s  %-8s  %-5s  %-12s  %-30s  %s\n",
			r.Program, r.Values["Indicator #"], r.Values["Level"], r.Values["Course #"],
			clip(r.Values["Method of Assessment"], 30), r.Values[generator.BinsColumn])
	}
	fmt.Fprintf(os.Stdout, "\n%d indicators\n", len(rows))
	return nil
}

func rowMap(r types.Row) map[string]string {
	m := make(map[string]string, len(r.Columns))
	for i, c := range r.Columns {
		m[c] = r.Values[i]
	}
	return m
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

func init() {
	addWhitelistFlags(indicatorsCmd)
	indicatorsCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(indicatorsCmd)
}

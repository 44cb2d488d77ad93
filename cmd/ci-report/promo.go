// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ci-report/internal/promo"
)

var promoCmd = &cobra.Command{
	Use:   "promo",
	Short: "Split the Engineering One promotion sheet into program grade workbooks",
	Long: `Promo reads the Engineering One promotion sheet for --year (the first file
in Grades/Core whose name contains the year and "EngOne", or --file) and
appends each Engineering One course's grades, as academic year year-1, to
the course grade workbook of the student's matched program and of Core.
Students without a recognised program go to ENUD.

When a grade workbook cannot be opened you are asked once whether to
continue; workbooks that cannot be opened are replaced. --yes answers for
you.`,
	RunE: runPromo,
}

func runPromo(cmd *cobra.Command, args []string) error {
	year, _ := cmd.Flags().GetInt("year")
	file, _ := cmd.Flags().GetString("file")
	yes, _ := cmd.Flags().GetBool("yes")

	confirm := func(prompt string) bool {
		if yes {
			return true
		}
		fmt.Printf("%s [y/n] ", prompt)
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		return strings.EqualFold(strings.TrimSpace(answer), "y")
	}

	_, err := promo.Separate(promo.Options{
		Year:      year,
		GradesDir: paths().GradesDir,
		File:      file,
		Confirm:   confirm,
		Logger:    logger,
	}, os.Stdout)
	return err
}

func init() {
	promoCmd.Flags().Int("year", time.Now().Year(), "year of the promotion sheet")
	promoCmd.Flags().String("file", "", "promotion sheet (default: search Grades/Core)")
	promoCmd.Flags().BoolP("yes", "y", false, "continue without asking when a grade workbook cannot be opened")

	rootCmd.AddCommand(promoCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/ci-report/internal/config"
	"github.com/pdiddy/ci-report/internal/grades"
)

var findCmd = &cobra.Command{
	Use:   "find <course> [assessment]",
	Short: "Search the grade folders for a course's grade workbooks",
	Long: `Find lists the grade workbooks whose names start with course followed by
assessment, ignoring case and whitespace. The program folder given with
--program is searched together with the grade_backup_dirs of the report
configuration. Folders that do not exist are skipped.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFind,
}

func runFind(cmd *cobra.Command, args []string) error {
	p := paths()
	configName, _ := cmd.Flags().GetString("config-name")
	program, _ := cmd.Flags().GetString("program")

	cfg, err := config.Load(p.ConfigDir, configName)
	if err != nil {
		return err
	}

	var subdirs []string
	if program != "" {
		subdirs = append(subdirs, program)
	}
	for _, d := range strings.Split(cfg.GradeBackupDirs, ",") {
		if d = strings.TrimSpace(d); d != "" {
			subdirs = append(subdirs, d)
		}
	}
	var present []string
	for _, d := range subdirs {
		if info, err := os.Stat(filepath.Join(p.GradesDir, d)); err == nil && info.IsDir() {
			present = append(present, d)
		} else {
			logger.Debug("grade folder missing", zap.String("dir", d))
		}
	}

	assessment := ""
	if len(args) == 2 {
		assessment = args[1]
	}
	results, err := grades.DirectorySearch(args[0], assessment, p.GradesDir, present)
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(results))
	for d := range results {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	total := 0
	for _, d := range dirs {
		for _, name := range results[d] {
			fmt.Println(filepath.Join(p.GradesDir, d, name))
			total++
		}
	}
	fmt.Printf("\n%d file(s) in %d folder(s)\n", total, len(dirs))
	return nil
}

func init() {
	findCmd.Flags().String("program", "", "program folder to search in addition to the backup folders")
	findCmd.Flags().String("config-name", "", "report configuration supplying grade_backup_dirs")

	rootCmd.AddCommand(findCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ci-report CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/ci-report/internal/secrets"
	"github.com/pdiddy/ci-report/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger is built in PersistentPreRunE and synced on exit.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "ci-report",
	Short: "Continuous improvement histogram reports for engineering programs",
	Long: `ci-report builds graduate attribute histogram reports from program
indicator sheets and historical course grade workbooks.

Indicator sheets live in Indicators/, grades in Grades/<PROGRAM>/, and
reports are written to Histograms/. Use init to create the tree, fetch to
mirror spreadsheets from the content repository, and generate to render
reports.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := zcfg.Build()
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		logger = l

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./ci-report.yaml or ~/.config/ci-report/ci-report.yaml)")
	pf.BoolP("verbose", "v", false, "debug logging")
	pf.String("indicators-dir", "", "directory of <PROGRAM> Indicators.xlsx sheets")
	pf.String("grades-dir", "", "top of the grade workbook hierarchy")
	pf.String("histograms-dir", "", "output directory for reports")
	pf.String("index-dir", "", "directory of the report ledger")
	pf.String("config-dir", "", "directory of named report configurations")

	for key, flag := range map[string]string{
		"indicators_dir": "indicators-dir",
		"grades_dir":     "grades-dir",
		"histograms_dir": "histograms-dir",
		"index_dir":      "index-dir",
		"config_dir":     "config-dir",
	} {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}

	viper.SetDefault("indicators_dir", "Indicators")
	viper.SetDefault("grades_dir", "Grades")
	viper.SetDefault("histograms_dir", "Histograms")
	viper.SetDefault("index_dir", "index")
	viper.SetDefault("config_dir", "config")
	viper.SetDefault("alfresco.root", "-root-")
	viper.SetDefault("alfresco.concurrency", 4)
	viper.SetDefault("alfresco.max_retries", 5)
	viper.SetDefault("alfresco.timeout", "60s")
}

func initConfig() {
	// A missing .env is normal; values then come from the environment.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ci-report")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "ci-report"))
		}
	}

	viper.SetEnvPrefix("CI_REPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// paths returns the working directories after flags, environment and the
// config file have been merged.
func paths() types.Paths {
	return types.Paths{
		IndicatorsDir: viper.GetString("indicators_dir"),
		GradesDir:     viper.GetString("grades_dir"),
		HistogramsDir: viper.GetString("histograms_dir"),
		IndexDir:      viper.GetString("index_dir"),
		ConfigDir:     viper.GetString("config_dir"),
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ci-report/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and write report configurations",
}

var configShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Print a report configuration merged over the defaults",
	Long: `Show loads the named configuration from the config directory on top of
the built-in defaults, validates it, and prints the result as YAML. Without
a name the defaults are printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) == 1 {
		name = args[0]
	}
	cfg, err := config.Load(paths().ConfigDir, name)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

var configWriteCmd = &cobra.Command{
	Use:   "write <file>",
	Short: "Write a report configuration to the config directory",
	Long: `Write saves the configuration loaded with --from (default: the built-in
defaults) as file in the config directory. A .yaml or .yml extension
writes YAML; anything else writes JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigWrite,
}

func runConfigWrite(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetString("from")
	dir := paths().ConfigDir

	cfg, err := config.Load(dir, from)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, args[0])
	if err := config.Write(cfg, path); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func init() {
	configWriteCmd.Flags().String("from", "", "configuration to start from")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configWriteCmd)

	rootCmd.AddCommand(configCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ci-report/internal/layout"
)

var initCmd = &cobra.Command{
	Use:   "init [root]",
	Short: "Create the Grades, Histograms, Indicators and config directories",
	Long: `Init creates the working tree under root (default "."):

  Grades/{Core,Co-op,ENCM,ENCV,ENEL,ENMC,ENPR,ONAE,ENUD}
  Histograms/
  Indicators/
  config/
  index/

Existing directories are left alone.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	created, err := layout.Init(root)
	if err != nil {
		return err
	}
	for _, d := range created {
		fmt.Printf("created %s\n", d)
	}
	if len(created) == 0 {
		fmt.Println("all directories already exist")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}

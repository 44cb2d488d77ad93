// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ci-report/internal/fetch"
	"github.com/pdiddy/ci-report/internal/secrets"
	"github.com/pdiddy/ci-report/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Mirror indicator and grade spreadsheets from the content repository",
	Long: `Fetch walks the Alfresco folder alfresco.root (default "-root-") at
alfresco.url and downloads every .xlsx file that is missing locally or older
than the repository copy into --dest, keeping the folder structure.

Credentials are read from .secrets/alfresco-username and
.secrets/alfresco-password, or from CI_REPORT_ALFRESCO_USERNAME and
CI_REPORT_ALFRESCO_PASSWORD.`,
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	dest, _ := cmd.Flags().GetString("dest")
	force, _ := cmd.Flags().GetBool("force")

	cfg := alfrescoConfig()
	if cfg.BaseURL == "" {
		return fmt.Errorf("alfresco.url is not set")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return fmt.Errorf("alfresco credentials missing: add %s and %s to .secrets/",
			secrets.AlfrescoUsername, secrets.AlfrescoPassword)
	}
	if root, _ := cmd.Flags().GetString("root"); root != "" {
		cfg.RootNode = root
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := fetch.NewClient(cfg, nil, logger)
	summary, err := fetch.Mirror(ctx, client, cfg.RootNode, dest, fetch.Options{
		Concurrency: cfg.Concurrency,
		Force:       force,
		Logger:      logger,
	}, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d file(s) failed to download", summary.Failed)
	}
	return nil
}

// alfrescoConfig merges the alfresco settings with the loaded secrets.
// Environment values win over secret files.
func alfrescoConfig() types.AlfrescoConfig {
	cfg := types.AlfrescoConfig{
		BaseURL:     viper.GetString("alfresco.url"),
		RootNode:    viper.GetString("alfresco.root"),
		Username:    viper.GetString("alfresco.username"),
		Password:    viper.GetString("alfresco.password"),
		Timeout:     viper.GetDuration("alfresco.timeout"),
		Concurrency: viper.GetInt("alfresco.concurrency"),
		MaxRetries:  viper.GetInt("alfresco.max_retries"),
	}
	if user, pass, ok := secrets.Alfresco(loadedSecrets); ok {
		if cfg.Username == "" {
			cfg.Username = user
		}
		if cfg.Password == "" {
			cfg.Password = pass
		}
	}
	return cfg
}

func init() {
	fetchCmd.Flags().String("dest", ".", "local directory receiving the mirrored tree")
	fetchCmd.Flags().String("root", "", "repository folder node id (overrides alfresco.root)")
	fetchCmd.Flags().Bool("force", false, "download files even when the local copy is current")

	rootCmd.AddCommand(fetchCmd)
}

package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/artpar/teamlens/bootstrap"
	"github.com/artpar/teamlens/config"
	"github.com/artpar/teamlens/web"
	"github.com/spf13/cobra"
)

var deliveryMonths int

var deliveryCmd = &cobra.Command{
	Use:   "delivery",
	Short: "Generate the delivery performance dashboard",
	Long: `Run the delivery analysis pipeline.

Fetches merged pull requests for the configured repositories and
issues for the configured Jira project, computes change lead time,
cycle time, and bug resolution time, and writes the delivery
dashboard.

Requires the delivery section in the config file plus GITHUB_TOKEN,
GITHUB_ORG, ATLASSIAN_EMAIL, ATLASSIAN_API_TOKEN, and
ATLASSIAN_BASE_URL in the environment.

Examples:
  teamlens delivery
  teamlens delivery --months 6`,
	RunE: runDelivery,
}

func init() {
	rootCmd.AddCommand(deliveryCmd)

	deliveryCmd.Flags().IntVar(&deliveryMonths, "months", 0, "override configured delivery months_back")
}

func runDelivery(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return err
	}
	if !cfg.Delivery.Enabled() {
		return errors.New("delivery is not configured: set delivery.project_key and delivery.repositories in the config file")
	}
	if deliveryMonths > 0 {
		cfg.Delivery.MonthsBack = deliveryMonths
	}

	a, err := bootstrap.New(cfg)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	if err := a.Web.GenerateDelivery(cmd.Context()); err != nil {
		return err
	}

	fmt.Printf("Dashboard written to %s\n", filepath.Join(cfg.Paths.OutputDir, web.DeliveryFilename))
	return nil
}

package main

import (
	"fmt"
	"path/filepath"

	"github.com/artpar/teamlens/bootstrap"
	"github.com/artpar/teamlens/config"
	"github.com/artpar/teamlens/web"
	"github.com/spf13/cobra"
)

var billingMonths int

var billingCmd = &cobra.Command{
	Use:   "billing",
	Short: "Generate the on-demand spend dashboard",
	Long: `Run the spend analysis pipeline.

Fetches usage events for every month in the analysis window that is
not already cached, folds the cached months into per-user, per-model,
and per-month rollups, and writes the billing dashboard.

Cached months are never refetched; delete the month's JSON file from
the data directory to force a refresh.

Examples:
  teamlens billing
  teamlens billing --months 6`,
	RunE: runBilling,
}

func init() {
	rootCmd.AddCommand(billingCmd)

	billingCmd.Flags().IntVar(&billingMonths, "months", 0, "override configured months_back")
}

func runBilling(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return err
	}
	if billingMonths > 0 {
		cfg.Billing.MonthsBack = billingMonths
	}

	a, err := bootstrap.New(cfg)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	if err := a.Web.GenerateBilling(cmd.Context()); err != nil {
		return err
	}

	fmt.Printf("Dashboard written to %s\n", filepath.Join(cfg.Paths.OutputDir, web.BillingFilename))
	return nil
}

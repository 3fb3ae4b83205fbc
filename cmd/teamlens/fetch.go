package main

import (
	"fmt"

	"github.com/artpar/teamlens/bootstrap"
	"github.com/artpar/teamlens/config"
	"github.com/spf13/cobra"
)

var fetchMonths int

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Cache usage events without rendering dashboards",
	Long: `Fetch usage events for every uncached month in the analysis window
and write them to the data directory as monthly JSON files.

Useful for warming the cache from a cron job; the billing command then
runs entirely from cached data.

Examples:
  teamlens fetch
  teamlens fetch --months 12`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntVar(&fetchMonths, "months", 0, "override configured months_back")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return err
	}
	if fetchMonths > 0 {
		cfg.Billing.MonthsBack = fetchMonths
	}

	a, err := bootstrap.New(cfg)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	if err := a.Billing.Sync(cmd.Context()); err != nil {
		return err
	}

	fmt.Printf("Cache up to date in %s\n", cfg.Paths.DataDir)
	return nil
}

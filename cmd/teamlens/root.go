package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "teamlens",
	Short: "Usage, spend, and adoption analytics for Cursor IDE teams",
	Long: `TeamLens collects usage and membership data from the Cursor Admin
API, aggregates it into per-user, per-model, and per-month statistics,
and renders static HTML dashboards.

Quick start:
  export CURSOR_API_KEY=key_...   # or put it in .env
  teamlens billing                # generate the spend dashboard
  teamlens adoption               # generate the adoption dashboard
  teamlens delivery               # generate the delivery dashboard
  teamlens serve                  # serve dashboards over HTTP

Data handling:
  teamlens fetch                  # cache usage events without rendering
  teamlens validate               # validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "teamlens.yaml", "config file path")
}

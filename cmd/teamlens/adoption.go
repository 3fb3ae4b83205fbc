package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/artpar/teamlens/bootstrap"
	"github.com/artpar/teamlens/config"
	"github.com/artpar/teamlens/web"
	"github.com/spf13/cobra"
)

var adoptionReferenceDate string

var adoptionCmd = &cobra.Command{
	Use:   "adoption",
	Short: "Generate the team adoption dashboard",
	Long: `Run the adoption analysis pipeline.

Fetches the team roster from the Cursor Admin API, reads the monthly
usage CSV exports from the data directory, cross-references the two,
and writes the adoption dashboard: monthly activity, top users, and
inactivity lists per configured threshold.

Examples:
  teamlens adoption
  teamlens adoption --reference-date 2026-02-15`,
	RunE: runAdoption,
}

func init() {
	rootCmd.AddCommand(adoptionCmd)

	adoptionCmd.Flags().StringVar(&adoptionReferenceDate, "reference-date", "", "anchor inactivity windows at this date (YYYY-MM-DD)")
}

func runAdoption(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return err
	}
	if adoptionReferenceDate != "" {
		if _, err := time.Parse("2006-01-02", adoptionReferenceDate); err != nil {
			return fmt.Errorf("--reference-date must be YYYY-MM-DD, got %q", adoptionReferenceDate)
		}
		cfg.Analysis.ReferenceDate = adoptionReferenceDate
	}

	a, err := bootstrap.New(cfg)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	if err := a.Web.GenerateAdoption(cmd.Context()); err != nil {
		return err
	}

	fmt.Printf("Dashboard written to %s\n", filepath.Join(cfg.Paths.OutputDir, web.AdoptionFilename))
	return nil
}

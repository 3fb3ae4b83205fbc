package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/artpar/teamlens/config"
	"github.com/spf13/cobra"
)

var validateCheckData bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before running an analysis",
	Long: `Validate the TeamLens configuration file.

Checks:
  - YAML syntax is valid
  - Values are in range
  - CURSOR_API_KEY is available
  - Data directory exists (optional)

Examples:
  teamlens validate
  teamlens validate --config /etc/teamlens/teamlens.yaml --check-data`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckData, "check-data", false, "check that the data directory exists")
}

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n\n", cfgFile)

	// Check file exists
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Printf("  %s Config file exists\n", checkMark)

	// Load and validate config
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Printf("  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Printf("  %s Config syntax valid\n", checkMark)

	// Show config summary
	fmt.Printf("  %s API base URL: %s\n", checkMark, cfg.API.BaseURL)
	fmt.Printf("  %s Months back: %d\n", checkMark, cfg.Billing.MonthsBack)
	fmt.Printf("  %s Inactivity thresholds: %s\n", checkMark, joinInts(cfg.Analysis.Thresholds))
	fmt.Printf("  %s Data directory: %s\n", checkMark, cfg.Paths.DataDir)
	fmt.Printf("  %s Output directory: %s\n", checkMark, cfg.Paths.OutputDir)

	// API key
	if _, err := config.APIKey(); err != nil {
		fmt.Printf("  %s CURSOR_API_KEY available\n", crossMark)
		fmt.Printf("      %v\n", err)
	} else {
		fmt.Printf("  %s CURSOR_API_KEY available\n", checkMark)
	}

	// Optional: check data directory
	if validateCheckData {
		if info, err := os.Stat(cfg.Paths.DataDir); err != nil || !info.IsDir() {
			fmt.Printf("  %s Data directory exists\n", crossMark)
		} else {
			fmt.Printf("  %s Data directory exists\n", checkMark)
		}
	}

	fmt.Println()
	fmt.Println("Configuration is valid.")
	return nil
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%dd", v)
	}
	return strings.Join(parts, ", ")
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)

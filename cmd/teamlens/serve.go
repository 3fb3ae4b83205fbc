package main

import (
	"fmt"
	"os"

	"github.com/artpar/teamlens/bootstrap"
	"github.com/artpar/teamlens/config"
	"github.com/spf13/cobra"
)

var hotReload bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboards over HTTP",
	Long: `Start the dashboard server.

The server will:
  - Generate both dashboards at startup
  - Serve them at / (billing) and /adoption
  - Expose Prometheus metrics at the configured metrics path
  - Watch the data directory and regenerate when cached months or
    CSV exports change

Environment variables:
  CURSOR_API_KEY            - Cursor Admin API key (required)
  TEAMLENS_SERVER_PORT      - Server port (default: 8080)
  TEAMLENS_DATA_DIR         - Data directory (default: data)
  TEAMLENS_LOG_LEVEL        - Log level: debug, info, warn, error

Examples:
  teamlens serve
  teamlens serve --config /etc/teamlens/teamlens.yaml
  teamlens serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	var a *bootstrap.App
	var err error

	if hasConfigFile && hotReload {
		// Hot reload only works with a config file
		a, err = bootstrap.NewWithHotReload(cfgFile)
	} else {
		cfg, loadErr := config.LoadWithFallback(cfgFile)
		if loadErr != nil {
			return fmt.Errorf("error loading config: %w", loadErr)
		}
		if !hasConfigFile {
			fmt.Println("Running with environment variables (no config file)")
		}
		a, err = bootstrap.New(cfg)
	}

	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return a.Run()
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/relayctl/internal/config"
	"github.com/creamcroissant/relayctl/internal/support/logging"
)

// Build info - injected via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "relayctl",
	Short: "Relay node manager",
	Long: `relayctl manages a pool of proxy relay nodes: fetches subscription
feeds, probes latency, and applies the selected node to the local
relay service with validate-then-commit semantics.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger = logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("relayctl %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/relayctl/internal/relay"
)

func init() {
	var (
		yes         bool
		restoreOnly bool
	)
	var resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Stop the relay service and restore the backed up configs",
		Long: `Restores the .backup copies of every relay config path and the
subscription snapshot and, unless --restore-only is set, stops and
disables the relay service.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm("This will restore backed up configs and stop the relay service. Continue?") {
				fmt.Println("Aborted.")
				return nil
			}

			if !restoreOnly {
				initSys, err := newInitSystem()
				if err != nil {
					return err
				}
				service := cfg.Relay.Service
				ctx := cmd.Context()
				if err := initSys.Stop(ctx, service); err != nil {
					logger.Warn("stop service failed", "service", service, "error", err)
				} else {
					fmt.Printf("Stopped %s.\n", service)
				}
				if err := initSys.Disable(ctx, service); err != nil {
					logger.Warn("disable service failed", "service", service, "error", err)
				} else {
					fmt.Printf("Disabled %s.\n", service)
				}
			}

			paths := append([]string{}, cfg.Relay.ConfigPaths...)
			if cfg.Subscription.File != "" {
				paths = append(paths, cfg.Subscription.File)
			}
			restored := relay.RestoreBackups(paths, logger)
			if restored == 0 {
				fmt.Println("No backup configs found to restore.")
			} else {
				fmt.Printf("Restored %d config file(s) from backup.\n", restored)
			}
			return nil
		},
	}
	resetCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	resetCmd.Flags().BoolVar(&restoreOnly, "restore-only", false, "Restore configs without touching the service")
	rootCmd.AddCommand(resetCmd)
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/creamcroissant/relayctl/internal/tui"
)

func init() {
	var watch bool
	var statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the current relay status",
		RunE: func(cmd *cobra.Command, args []string) error {
			initSys, err := newInitSystem()
			if err != nil {
				return err
			}
			collector := newCollector(initSys, newStore())

			if watch {
				p := tea.NewProgram(tui.NewModel(collector), tea.WithAltScreen())
				_, err := p.Run()
				return err
			}

			data := collector.Collect(cmd.Context())
			fmt.Print(tui.RenderOnce(data))
			if data.SubscriptionURL != "" {
				fmt.Printf("Subscription: %s\n", data.SubscriptionURL)
			}
			return nil
		},
	}
	statusCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Live dashboard, refreshed continuously")
	rootCmd.AddCommand(statusCmd)
}

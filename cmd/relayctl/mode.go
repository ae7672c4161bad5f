package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/relayctl/internal/node"
)

func init() {
	var modeCmd = &cobra.Command{
		Use:   "mode",
		Short: "Configure the proxy chaining mode",
		Long: `Direct mode routes traffic straight through the selected node.
Chained mode forwards the node's traffic through a secondary upstream
proxy. The mode persists and applies to every subsequent switch.`,
	}

	modeCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the persisted proxy mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := newStore().Load()
			if err != nil {
				return err
			}
			if snap == nil || snap.ProxyMode == "" {
				fmt.Println("Mode: direct (default)")
				return nil
			}
			fmt.Printf("Mode: %s\n", snap.ProxyMode)
			if snap.ProxyMode == node.ModeChained && snap.SecondaryProxy != nil {
				sec := snap.SecondaryProxy
				fmt.Printf("Secondary: %s://%s:%d\n", sec.Protocol, sec.Server, sec.Port)
			}
			return nil
		},
	})

	modeCmd.AddCommand(&cobra.Command{
		Use:   "direct",
		Short: "Route traffic directly through the selected node",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newStore().SetMode(node.ModeDirect, nil); err != nil {
				return err
			}
			fmt.Println("Mode set to direct. Run 'relayctl node switch' to re-apply.")
			return nil
		},
	})

	var (
		secServer   string
		secPort     int
		secProtocol string
		secUser     string
		secPass     string
	)
	var chainedCmd = &cobra.Command{
		Use:   "chained",
		Short: "Chain the selected node through a secondary proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secServer == "" {
				return fmt.Errorf("--server is required for chained mode")
			}
			if secPort <= 0 || secPort > 65535 {
				return fmt.Errorf("--port must be in [1, 65535]")
			}
			switch secProtocol {
			case "http", "socks5":
			default:
				return fmt.Errorf("unsupported secondary protocol %q (http or socks5)", secProtocol)
			}

			sec := &node.Secondary{
				Server:   secServer,
				Port:     secPort,
				Protocol: secProtocol,
				Username: secUser,
				Password: secPass,
			}
			if err := newStore().SetMode(node.ModeChained, sec); err != nil {
				return err
			}
			fmt.Printf("Mode set to chained via %s://%s:%d. Run 'relayctl node switch' to re-apply.\n",
				secProtocol, secServer, secPort)
			return nil
		},
	}
	chainedCmd.Flags().StringVar(&secServer, "server", "", "Secondary proxy host")
	chainedCmd.Flags().IntVar(&secPort, "port", 0, "Secondary proxy port")
	chainedCmd.Flags().StringVar(&secProtocol, "protocol", "socks5", "Secondary proxy protocol (http or socks5)")
	chainedCmd.Flags().StringVar(&secUser, "user", "", "Secondary proxy username")
	chainedCmd.Flags().StringVar(&secPass, "pass", "", "Secondary proxy password")
	modeCmd.AddCommand(chainedCmd)

	rootCmd.AddCommand(modeCmd)
}

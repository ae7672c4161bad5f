package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/relayctl/internal/support/display"
)

func init() {
	var subCmd = &cobra.Command{
		Use:   "sub",
		Short: "Subscription management commands",
		Long:  `Fetch, inspect and persist the remote node subscription feed.`,
	}

	var updateCmd = &cobra.Command{
		Use:   "update [url]",
		Short: "Fetch the subscription feed and overwrite the snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := cfg.Subscription.URL
			if len(args) == 1 {
				url = args[0]
			}
			if url == "" {
				return fmt.Errorf("no subscription URL: pass one or set subscription.url")
			}
			return runSubUpdate(cmd.Context(), url)
		},
	}
	subCmd.AddCommand(updateCmd)

	var showCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the persisted snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubShow()
		},
	}
	subCmd.AddCommand(showCmd)

	rootCmd.AddCommand(subCmd)
}

func runSubUpdate(ctx context.Context, url string) error {
	store := newStore()

	if prev, err := store.Load(); err == nil && prev != nil {
		if prev.URL != "" && prev.URL != url {
			fmt.Printf("Previous subscription URL: %s\n", prev.URL)
		}
		if prev.UpdateTime > 0 {
			fmt.Printf("Last update: %s\n", time.Unix(prev.UpdateTime, 0).Format("2006-01-02 15:04:05"))
		}
	}

	fmt.Printf("Fetching subscription: %s\n", url)
	nodes, err := newFetcher().Fetch(ctx, url)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return fmt.Errorf("subscription yielded no usable nodes")
	}
	if err := store.Save(url, nodes); err != nil {
		return err
	}

	fmt.Printf("Subscription updated: %d nodes\n", len(nodes))
	regionCount := map[string]int{}
	var regions []string
	for _, n := range nodes {
		if regionCount[n.Region] == 0 {
			regions = append(regions, n.Region)
		}
		regionCount[n.Region]++
	}
	for _, region := range regions {
		fmt.Printf("  %-12s %d nodes\n", region, regionCount[region])
	}
	return nil
}

func runSubShow() error {
	snap, err := newStore().Load()
	if err != nil {
		return err
	}
	if snap == nil {
		fmt.Println("No subscription snapshot. Using builtin nodes.")
		return nil
	}

	fmt.Printf("URL:         %s\n", snap.URL)
	fmt.Printf("Updated:     %s\n", time.Unix(snap.UpdateTime, 0).Format("2006-01-02 15:04:05"))
	fmt.Printf("Proxy mode:  %s\n", orDefault(string(snap.ProxyMode), "direct"))
	if snap.SecondaryProxy != nil {
		fmt.Printf("Secondary:   %s:%d [%s]\n",
			snap.SecondaryProxy.Server, snap.SecondaryProxy.Port,
			orDefault(snap.SecondaryProxy.Protocol, "http"))
	}
	fmt.Printf("Nodes:       %d\n\n", len(snap.Nodes))

	var tbl display.Table
	tbl.Row("", "#", "NAME", "REGION", "SERVER", "PROTOCOL")
	for i, n := range snap.Nodes {
		mark := ""
		if i == snap.SelectedIndex {
			mark = "*"
		}
		tbl.Row(mark, strconv.Itoa(i+1), n.Name, n.Region, n.Addr(), string(n.Protocol))
	}
	return tbl.Render(os.Stdout)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/relayctl/internal/node"
	"github.com/creamcroissant/relayctl/internal/probe"
	"github.com/creamcroissant/relayctl/internal/support/display"
)

func init() {
	var nodeCmd = &cobra.Command{
		Use:   "node",
		Short: "Node management commands",
		Long:  `List, test and switch between relay nodes.`,
	}

	var listCmd = &cobra.Command{
		Use:   "list",
		Short: "List available nodes grouped by region",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodeList()
		},
	}
	nodeCmd.AddCommand(listCmd)

	var testAll bool
	var testCmd = &cobra.Command{
		Use:   "test [index]",
		Short: "Probe node latency",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if testAll || len(args) == 0 {
				return runNodeTestAll(cmd.Context())
			}
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid node index: %w", err)
			}
			return runNodeTestOne(cmd.Context(), index)
		},
	}
	testCmd.Flags().BoolVarP(&testAll, "all", "a", false, "Probe every valid node")
	nodeCmd.AddCommand(testCmd)

	var switchBest bool
	var switchCmd = &cobra.Command{
		Use:   "switch [index]",
		Short: "Apply a node as the active outbound relay",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if switchBest {
				return runNodeSwitchBest(cmd.Context())
			}
			if len(args) != 1 {
				return fmt.Errorf("pass a node index or --best")
			}
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid node index: %w", err)
			}
			return runNodeSwitch(cmd.Context(), index)
		},
	}
	switchCmd.Flags().BoolVarP(&switchBest, "best", "b", false, "Probe all nodes and apply the fastest")
	nodeCmd.AddCommand(switchCmd)

	rootCmd.AddCommand(nodeCmd)
}

// candidateNodes returns the valid selectable node set, 0-indexed the same
// way every node subcommand numbers it.
func candidateNodes() ([]node.Node, error) {
	catalog := newCatalog(newStore())
	nodes, err := catalog.Available()
	if err != nil {
		return nil, err
	}
	valid := node.Valid(nodes)
	if len(valid) == 0 {
		return nil, fmt.Errorf("no valid nodes available")
	}
	return valid, nil
}

func runNodeList() error {
	nodes, err := candidateNodes()
	if err != nil {
		return err
	}

	// Group by region, preserving first-seen region order.
	groups := map[string][]int{}
	var regions []string
	for i, n := range nodes {
		if _, seen := groups[n.Region]; !seen {
			regions = append(regions, n.Region)
		}
		groups[n.Region] = append(groups[n.Region], i)
	}

	active, hasActive := activeNode()

	for _, region := range regions {
		fmt.Printf("[%s]\n", region)
		var tbl display.Table
		for _, i := range groups[region] {
			n := nodes[i]
			mark := " "
			if hasActive && sameNode(n, active) {
				mark = "*"
			}
			tbl.Row(fmt.Sprintf("%s %d", mark, i+1), n.Name, n.Addr(), string(n.Protocol))
		}
		if err := tbl.Render(os.Stdout); err != nil {
			return err
		}
	}
	return nil
}

// activeNode returns the snapshot node the last switch applied, if any.
func activeNode() (node.Node, bool) {
	snap, err := newStore().Load()
	if err != nil || snap == nil {
		return node.Node{}, false
	}
	return snap.Selected()
}

func sameNode(a, b node.Node) bool {
	return a.Server == b.Server && a.Port == b.Port && a.Name == b.Name
}

func runNodeTestOne(ctx context.Context, index int) error {
	nodes, err := candidateNodes()
	if err != nil {
		return err
	}
	if index < 1 || index > len(nodes) {
		return fmt.Errorf("node index %d out of range [1-%d]", index, len(nodes))
	}
	n := nodes[index-1]

	fmt.Printf("Testing %s (%s)...\n", n.Name, n.Addr())
	res := newProber().Probe(ctx, n)
	printProbeResult(res)
	return nil
}

func runNodeTestAll(ctx context.Context) error {
	nodes, err := candidateNodes()
	if err != nil {
		return err
	}

	fmt.Printf("Testing %d nodes...\n\n", len(nodes))
	results := newProber().ProbeAll(ctx, nodes)

	var tbl display.Table
	tbl.Row("#", "NAME", "REGION", "STATUS", "LATENCY", "SUCCESS")
	online := 0
	for i, res := range results {
		status := string(res.Status)
		latency := "-"
		if res.Online() {
			online++
			latency = fmt.Sprintf("%.1fms", res.LatencyMS)
		}
		tbl.Row(strconv.Itoa(i+1), res.Node.Name, res.Node.Region, status, latency,
			fmt.Sprintf("%.0f%%", res.SuccessRate*100))
	}
	if err := tbl.Render(os.Stdout); err != nil {
		return err
	}

	fmt.Printf("\nOnline: %d/%d\n", online, len(nodes))
	if best, ok := probe.Rank(results); ok {
		fmt.Printf("Recommended: %s (%.1fms)\n", results[best].Node.Name, results[best].LatencyMS)
	} else {
		fmt.Println("All nodes are unreachable.")
	}
	return nil
}

func runNodeSwitch(ctx context.Context, index int) error {
	nodes, err := candidateNodes()
	if err != nil {
		return err
	}
	if index < 1 || index > len(nodes) {
		return fmt.Errorf("node index %d out of range [1-%d]", index, len(nodes))
	}
	return applyNode(ctx, nodes[index-1])
}

func runNodeSwitchBest(ctx context.Context) error {
	nodes, err := candidateNodes()
	if err != nil {
		return err
	}
	fmt.Printf("Probing %d nodes for the fastest...\n", len(nodes))
	results := newProber().ProbeAll(ctx, nodes)
	best, ok := probe.Rank(results)
	if !ok {
		return fmt.Errorf("all nodes are unreachable")
	}
	fmt.Printf("Best node: %s (%.1fms)\n", results[best].Node.Name, results[best].LatencyMS)
	return applyNode(ctx, nodes[best])
}

// applyNode synthesizes and commits the configuration for n, honoring the
// snapshot's persisted proxy mode.
func applyNode(ctx context.Context, n node.Node) error {
	store := newStore()
	snap, snapErr := store.Load()

	mode := node.ModeDirect
	var secondary *node.Secondary
	if snapErr == nil && snap != nil && snap.ProxyMode != "" {
		mode = snap.ProxyMode
		secondary = snap.SecondaryProxy
	}

	relayCfg, err := newSynthesizer().Build(n, mode, secondary)
	if err != nil {
		return err
	}

	initSys, err := newInitSystem()
	if err != nil {
		return err
	}
	applier, err := newApplier(initSys)
	if err != nil {
		return err
	}

	fmt.Printf("Applying %s (%s mode)...\n", n.Name, mode)
	if err := applier.Apply(ctx, relayCfg); err != nil {
		return err
	}

	// Selection is persisted as the node's position in its own snapshot, so
	// the index stays valid next to metadata pseudo-nodes.
	if n.Source == node.SourceSubscription && snap != nil {
		if idx := snap.IndexOf(n); idx >= 0 {
			if err := store.SetSelected(idx); err != nil {
				logger.Warn("persist selected node failed", "error", err)
			}
		}
	}

	fmt.Printf("Now using node: %s\n", n.Name)
	fmt.Printf("Local SOCKS5 proxy: 127.0.0.1:%d\n", relayCfg.Inbounds[0].Port)
	fmt.Printf("Local HTTP proxy:   127.0.0.1:%d\n", relayCfg.Inbounds[1].Port)
	return nil
}

func printProbeResult(res probe.Result) {
	if res.Online() {
		fmt.Printf("Status:       online\n")
		fmt.Printf("Latency:      %.1fms\n", res.LatencyMS)
		fmt.Printf("Success rate: %.0f%%\n", res.SuccessRate*100)
		return
	}
	fmt.Printf("Status: %s\n", res.Status)
	if res.Err != nil {
		fmt.Printf("Error:  %v\n", res.Err)
	}
}

package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/creamcroissant/relayctl/internal/probe"
	"github.com/creamcroissant/relayctl/internal/status"
	"github.com/creamcroissant/relayctl/internal/subscription"
)

// SubscriptionRefresh re-fetches the configured feed and overwrites the
// snapshot. A fetch failure leaves the existing snapshot untouched.
type SubscriptionRefresh struct {
	URL     string
	Fetcher *subscription.Fetcher
	Store   *subscription.Store
	Logger  *slog.Logger
}

func (j *SubscriptionRefresh) Name() string { return "subscription-refresh" }

func (j *SubscriptionRefresh) Run(ctx context.Context) error {
	if j.URL == "" {
		return fmt.Errorf("no subscription url configured")
	}
	nodes, err := j.Fetcher.Fetch(ctx, j.URL)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return fmt.Errorf("subscription %s yielded no nodes", j.URL)
	}
	if err := j.Store.Save(j.URL, nodes); err != nil {
		return err
	}
	j.Logger.Info("subscription refreshed", "url", j.URL, "nodes", len(nodes))
	return nil
}

// ActiveNodeProbe measures the currently applied node and logs when it goes
// unreachable, so daemon logs show degradation before the operator notices.
type ActiveNodeProbe struct {
	Collector *status.Collector
	Logger    *slog.Logger
}

func (j *ActiveNodeProbe) Name() string { return "active-node-probe" }

func (j *ActiveNodeProbe) Run(ctx context.Context) error {
	data := j.Collector.Collect(ctx)
	if data.Node == nil || data.Latency == nil {
		j.Logger.Info("no active node configured")
		return nil
	}
	if data.Latency.Status != probe.StatusOnline {
		j.Logger.Warn("active node unreachable",
			"node", data.Node.Name, "target", data.Target)
		return nil
	}
	j.Logger.Info("active node healthy",
		"node", data.Node.Name,
		"latency_ms", fmt.Sprintf("%.1f", data.Latency.LatencyMS),
		"success_rate", data.Latency.SuccessRate)
	return nil
}

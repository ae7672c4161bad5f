package main

import (
	"github.com/creamcroissant/relayctl/internal/initsys"
	"github.com/creamcroissant/relayctl/internal/node"
	"github.com/creamcroissant/relayctl/internal/probe"
	"github.com/creamcroissant/relayctl/internal/relay"
	"github.com/creamcroissant/relayctl/internal/status"
	"github.com/creamcroissant/relayctl/internal/subscription"
)

// Constructors shared by the subcommands. Each builds from the loaded
// config so commands stay thin.

func newStore() *subscription.Store {
	return subscription.NewStore(cfg.Subscription.File, logger)
}

func newFetcher() *subscription.Fetcher {
	return subscription.NewFetcher(cfg.Subscription.FetchTimeout, logger)
}

func newCatalog(store *subscription.Store) *node.Catalog {
	return &node.Catalog{Loader: store.Nodes}
}

func newProber() *probe.Prober {
	return probe.New(probe.Options{
		Timeout:  cfg.Probe.Timeout,
		Attempts: cfg.Probe.Attempts,
		Pause:    cfg.Probe.Pause,
		Workers:  cfg.Probe.Workers,
	})
}

func newInitSystem() (initsys.InitSystem, error) {
	return initsys.New(cfg.Init)
}

func newSynthesizer() *relay.Synthesizer {
	return relay.NewSynthesizer(cfg.Inbounds.SocksPort, cfg.Inbounds.HTTPPort)
}

func newApplier(initSys initsys.InitSystem) (*relay.Applier, error) {
	return relay.NewApplier(relay.ApplierOptions{
		Paths:       cfg.Relay.ConfigPaths,
		Validator:   relay.NewBinaryRunner(cfg.Relay.Binary),
		InitSystem:  initSys,
		Service:     cfg.Relay.Service,
		SettleDelay: cfg.Relay.SettleDelay,
		Logger:      logger,
	})
}

func newCollector(initSys initsys.InitSystem, store *subscription.Store) *status.Collector {
	configPath := ""
	if len(cfg.Relay.ConfigPaths) > 0 {
		configPath = cfg.Relay.ConfigPaths[0]
	}
	return status.NewCollector(
		initSys,
		cfg.Relay.Service,
		configPath,
		newCatalog(store),
		store,
		logger,
	)
}

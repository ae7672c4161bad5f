package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/relayctl/internal/job"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "daemon",
		Short: "Run background subscription refresh and health probing",
		Long: `Runs in the foreground and periodically refreshes the subscription
feed and probes the active node. Schedules come from daemon.refresh_spec
and daemon.probe_spec in the config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			initSys, err := newInitSystem()
			if err != nil {
				return err
			}
			store := newStore()

			scheduler := job.NewScheduler(logger)

			if cfg.Subscription.URL != "" {
				refresh := &job.SubscriptionRefresh{
					URL:     cfg.Subscription.URL,
					Fetcher: newFetcher(),
					Store:   store,
					Logger:  logger,
				}
				if _, err := scheduler.Register(cfg.Daemon.RefreshSpec, refresh); err != nil {
					return err
				}
			} else {
				logger.Warn("no subscription url configured, refresh job disabled")
			}

			probeJob := &job.ActiveNodeProbe{
				Collector: newCollector(initSys, store),
				Logger:    logger,
			}
			if _, err := scheduler.Register(cfg.Daemon.ProbeSpec, probeJob); err != nil {
				return err
			}

			scheduler.Start()
			logger.Info("daemon started",
				"refresh_spec", cfg.Daemon.RefreshSpec,
				"probe_spec", cfg.Daemon.ProbeSpec)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig

			logger.Info("shutting down, waiting for running jobs")
			<-scheduler.Stop().Done()
			logger.Info("daemon stopped")
			return nil
		},
	})
}

// Package config loads relayctl configuration from file, environment and
// defaults.
package config

import (
	"time"

	"github.com/creamcroissant/relayctl/internal/initsys"
)

type Config struct {
	Log          LogConfig          `mapstructure:"log"`
	Relay        RelayConfig        `mapstructure:"relay"`
	Subscription SubscriptionConfig `mapstructure:"subscription"`
	Probe        ProbeConfig        `mapstructure:"probe"`
	Inbounds     InboundConfig      `mapstructure:"inbounds"`
	Init         initsys.Config     `mapstructure:"init"`
	Daemon       DaemonConfig       `mapstructure:"daemon"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RelayConfig describes the external relay binary and service.
type RelayConfig struct {
	// Binary is the relay executable exposing `test -config` and `run`.
	Binary string `mapstructure:"binary"`
	// Service is the supervisor's name for the relay process.
	Service string `mapstructure:"service"`
	// ConfigPaths are written on apply; the first is canonical.
	ConfigPaths []string `mapstructure:"config_paths"`
	// SettleDelay is the wait before polling service state after restart.
	SettleDelay time.Duration `mapstructure:"settle_delay"`
}

type SubscriptionConfig struct {
	// URL is the default feed; `sub update` accepts an override argument.
	URL string `mapstructure:"url"`
	// File is the snapshot location.
	File string `mapstructure:"file"`
	// FetchTimeout bounds the HTTP GET.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

type ProbeConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	Attempts int           `mapstructure:"attempts"`
	Pause    time.Duration `mapstructure:"pause"`
	Workers  int           `mapstructure:"workers"`
}

// InboundConfig fixes the local listener ports the synthesized config
// always exposes.
type InboundConfig struct {
	SocksPort int `mapstructure:"socks_port"`
	HTTPPort  int `mapstructure:"http_port"`
}

// DaemonConfig schedules the background jobs in daemon mode.
type DaemonConfig struct {
	// RefreshSpec is the cron spec for subscription refresh.
	RefreshSpec string `mapstructure:"refresh_spec"`
	// ProbeSpec is the cron spec for the active-node health probe.
	ProbeSpec string `mapstructure:"probe_spec"`
}

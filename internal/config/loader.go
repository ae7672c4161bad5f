package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from /etc/relayctl/config.yaml or ./config.yaml,
// overlaid with RELAYCTL_* environment variables. A missing file is fine;
// defaults cover every knob.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/relayctl/")

	v.SetEnvPrefix("RELAYCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("relay.binary", "/usr/local/bin/v2ray")
	v.SetDefault("relay.service", "v2ray")
	v.SetDefault("relay.config_paths", []string{
		"/etc/v2ray/config.json",
		"/usr/local/etc/v2ray/config.json",
	})
	v.SetDefault("relay.settle_delay", "2s")

	v.SetDefault("subscription.url", "")
	v.SetDefault("subscription.file", "/etc/v2ray/subscription.json")
	v.SetDefault("subscription.fetch_timeout", "30s")

	v.SetDefault("probe.timeout", "5s")
	v.SetDefault("probe.attempts", 3)
	v.SetDefault("probe.pause", "200ms")
	v.SetDefault("probe.workers", 5)

	v.SetDefault("inbounds.socks_port", 10808)
	v.SetDefault("inbounds.http_port", 10809)

	v.SetDefault("init.type", "auto")

	v.SetDefault("daemon.refresh_spec", "@every 6h")
	v.SetDefault("daemon.probe_spec", "@every 5m")
}

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)

	assert.Equal(t, "/usr/local/bin/v2ray", cfg.Relay.Binary)
	assert.Equal(t, "v2ray", cfg.Relay.Service)
	assert.Equal(t, []string{
		"/etc/v2ray/config.json",
		"/usr/local/etc/v2ray/config.json",
	}, cfg.Relay.ConfigPaths)
	assert.Equal(t, 2*time.Second, cfg.Relay.SettleDelay)

	assert.Empty(t, cfg.Subscription.URL)
	assert.Equal(t, "/etc/v2ray/subscription.json", cfg.Subscription.File)
	assert.Equal(t, 30*time.Second, cfg.Subscription.FetchTimeout)

	assert.Equal(t, 5*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, 3, cfg.Probe.Attempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Probe.Pause)
	assert.Equal(t, 5, cfg.Probe.Workers)

	assert.Equal(t, 10808, cfg.Inbounds.SocksPort)
	assert.Equal(t, 10809, cfg.Inbounds.HTTPPort)

	assert.Equal(t, "auto", cfg.Init.Type)
	assert.Equal(t, "@every 6h", cfg.Daemon.RefreshSpec)
	assert.Equal(t, "@every 5m", cfg.Daemon.ProbeSpec)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := `
log:
  level: debug
  format: json
relay:
  service: xray
  config_paths:
    - /etc/xray/config.json
subscription:
  url: https://feed.example.com/sub
probe:
  attempts: 5
init:
  type: openrc
`
	require.NoError(t, os.WriteFile("config.yaml", []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "xray", cfg.Relay.Service)
	assert.Equal(t, []string{"/etc/xray/config.json"}, cfg.Relay.ConfigPaths)
	assert.Equal(t, "https://feed.example.com/sub", cfg.Subscription.URL)
	assert.Equal(t, 5, cfg.Probe.Attempts)
	assert.Equal(t, "openrc", cfg.Init.Type)

	// Untouched keys keep their defaults.
	assert.Equal(t, "/usr/local/bin/v2ray", cfg.Relay.Binary)
	assert.Equal(t, 10808, cfg.Inbounds.SocksPort)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RELAYCTL_LOG_LEVEL", "warn")
	t.Setenv("RELAYCTL_RELAY_SERVICE", "xray")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "xray", cfg.Relay.Service)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("config.yaml", []byte("log: [unclosed"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

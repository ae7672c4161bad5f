// Package relay synthesizes the outbound routing configuration consumed by
// the external relay binary and applies it with validate-then-commit
// semantics.
package relay

import (
	"encoding/json"
	"fmt"
	"os"
)

// Outbound tags. The chained topology depends on these being stable: the
// secondary outbound names TagRelayNode as its upstream, and the routing
// rule sends all egress to TagSecondary.
const (
	TagRelayNode = "relay-node"
	TagSecondary = "secondary"
)

// Config is the document the relay binary runs from.
type Config struct {
	Log       LogConfig  `json:"log"`
	Inbounds  []Inbound  `json:"inbounds"`
	Outbounds []Outbound `json:"outbounds"`
	Routing   *Routing   `json:"routing,omitempty"`
}

type LogConfig struct {
	LogLevel string `json:"loglevel"`
}

type Inbound struct {
	Tag      string           `json:"tag,omitempty"`
	Port     int              `json:"port"`
	Listen   string           `json:"listen,omitempty"`
	Protocol string           `json:"protocol"`
	Settings *InboundSettings `json:"settings"`
}

type InboundSettings struct {
	Auth string `json:"auth,omitempty"`
	UDP  bool   `json:"udp,omitempty"`
}

type Outbound struct {
	Tag            string           `json:"tag,omitempty"`
	Protocol       string           `json:"protocol"`
	Settings       OutboundSettings `json:"settings"`
	StreamSettings *StreamSettings  `json:"streamSettings,omitempty"`
	ProxySettings  *ProxySettings   `json:"proxySettings,omitempty"`
}

type OutboundSettings struct {
	Vnext   []Vnext       `json:"vnext,omitempty"`
	Servers []ProxyServer `json:"servers,omitempty"`
}

// Vnext is a vmess/vless upstream endpoint.
type Vnext struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
	Users   []User `json:"users"`
}

type User struct {
	ID         string `json:"id"`
	AlterID    *int   `json:"alterId,omitempty"`
	Security   string `json:"security,omitempty"`
	Encryption string `json:"encryption,omitempty"`
	Flow       string `json:"flow,omitempty"`
}

// ProxyServer is an http/socks upstream used by the secondary outbound.
type ProxyServer struct {
	Address string    `json:"address"`
	Port    int       `json:"port"`
	Users   []Account `json:"users,omitempty"`
}

type Account struct {
	User string `json:"user"`
	Pass string `json:"pass"`
}

type StreamSettings struct {
	Network     string       `json:"network"`
	Security    string       `json:"security,omitempty"`
	TLSSettings *TLSSettings `json:"tlsSettings,omitempty"`
	WSSettings  *WSSettings  `json:"wsSettings,omitempty"`
}

type TLSSettings struct {
	ServerName    string `json:"serverName"`
	AllowInsecure bool   `json:"allowInsecure"`
}

type WSSettings struct {
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers,omitempty"`
}

// ProxySettings chains this outbound through another outbound's tag.
type ProxySettings struct {
	Tag string `json:"tag"`
}

type Routing struct {
	Rules []Rule `json:"rules"`
}

type Rule struct {
	Type        string `json:"type"`
	Network     string `json:"network,omitempty"`
	OutboundTag string `json:"outboundTag"`
}

// Marshal renders the config as indented JSON, the form the relay binary and
// human operators both read.
func (c *Config) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode relay config: %w", err)
	}
	return data, nil
}

// LoadConfig reads an existing relay configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode relay config %s: %w", path, err)
	}
	return &cfg, nil
}

// PrimaryTarget returns the address, port and protocol of the first
// outbound's upstream, used to match the live config back to a catalog node.
func (c *Config) PrimaryTarget() (server string, port int, protocol string, ok bool) {
	if len(c.Outbounds) == 0 {
		return "", 0, "", false
	}
	out := c.Outbounds[0]
	if len(out.Settings.Vnext) == 0 {
		return "", 0, out.Protocol, false
	}
	v := out.Settings.Vnext[0]
	return v.Address, v.Port, out.Protocol, true
}

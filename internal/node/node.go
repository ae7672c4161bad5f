// Package node defines the relay endpoint model shared by the subscription,
// probing and configuration layers.
package node

import "fmt"

// Protocol identifies the relay protocol a node speaks.
type Protocol string

const (
	ProtocolVMess Protocol = "vmess"
	ProtocolVLESS Protocol = "vless"
)

// Source records where a node came from.
type Source string

const (
	SourceSubscription Source = "subscription"
	SourceBuiltin      Source = "builtin"
)

// Mode selects the outbound topology.
type Mode string

const (
	// ModeDirect is the single-hop topology: local -> node -> Internet.
	ModeDirect Mode = "direct"
	// ModeChained routes through a secondary relay: local -> node -> secondary -> Internet.
	ModeChained Mode = "chained"
)

// Secondary is the second-hop relay target used in chained mode.
type Secondary struct {
	Server   string `json:"server" yaml:"server"`
	Port     int    `json:"port" yaml:"port"`
	Protocol string `json:"protocol" yaml:"protocol"` // http or socks5
	Username string `json:"username,omitempty" yaml:"username"`
	Password string `json:"password,omitempty" yaml:"password"`
}

// Node is a candidate relay endpoint.
type Node struct {
	Name     string   `json:"name" yaml:"name"`
	Server   string   `json:"server" yaml:"server"`
	Port     int      `json:"port" yaml:"port"`
	Protocol Protocol `json:"protocol" yaml:"protocol"`

	// Credential
	UUID    string `json:"uuid" yaml:"uuid"`
	AlterID int    `json:"alter_id,omitempty" yaml:"alter_id"`

	// Transport
	Network string `json:"network" yaml:"network"` // tcp, ws
	Host    string `json:"host,omitempty" yaml:"host"`
	Path    string `json:"path,omitempty" yaml:"path"`

	// Security
	TLS  string `json:"tls,omitempty" yaml:"tls"` // "", tls, xtls
	SNI  string `json:"sni,omitempty" yaml:"sni"`
	ALPN string `json:"alpn,omitempty" yaml:"alpn"`

	// Protocol specific
	Cipher string `json:"cipher,omitempty" yaml:"cipher"` // vmess scy
	Flow   string `json:"flow,omitempty" yaml:"flow"`     // vless

	Region string `json:"region" yaml:"region"`
	Source Source `json:"source,omitempty" yaml:"source"`
}

// Addr returns the dialable host:port string.
func (n Node) Addr() string {
	return fmt.Sprintf("%s:%d", n.Server, n.Port)
}

// Validate reports whether the node can be selected and applied.
func (n Node) Validate() error {
	if n.Server == "" {
		return fmt.Errorf("node %q: server is required", n.Name)
	}
	if n.Port <= 0 || n.Port > 65535 {
		return fmt.Errorf("node %q: port %d out of range", n.Name, n.Port)
	}
	switch n.Protocol {
	case ProtocolVMess, ProtocolVLESS:
	default:
		return fmt.Errorf("node %q: unknown protocol %q", n.Name, n.Protocol)
	}
	return nil
}

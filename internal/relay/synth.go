package relay

import (
	"fmt"

	"github.com/creamcroissant/relayctl/internal/node"
)

// Default local inbound ports.
const (
	DefaultSocksPort = 10808
	DefaultHTTPPort  = 10809
)

// Synthesizer builds relay configurations for a selected node.
type Synthesizer struct {
	SocksPort int
	HTTPPort  int
}

// NewSynthesizer creates a Synthesizer with the given local listener ports,
// falling back to the defaults when zero.
func NewSynthesizer(socksPort, httpPort int) *Synthesizer {
	if socksPort <= 0 {
		socksPort = DefaultSocksPort
	}
	if httpPort <= 0 {
		httpPort = DefaultHTTPPort
	}
	return &Synthesizer{SocksPort: socksPort, HTTPPort: httpPort}
}

// Build synthesizes the outbound configuration for n. Direct mode emits one
// outbound; chained mode adds a secondary http/socks outbound whose upstream
// is the node outbound, plus a routing rule forcing all egress through it.
func (s *Synthesizer) Build(n node.Node, mode node.Mode, secondary *node.Secondary) (*Config, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Log: LogConfig{LogLevel: "warning"},
		Inbounds: []Inbound{
			{
				Tag:      "socks-in",
				Port:     s.SocksPort,
				Protocol: "socks",
				Settings: &InboundSettings{Auth: "noauth", UDP: true},
			},
			{
				Tag:      "http-in",
				Port:     s.HTTPPort,
				Protocol: "http",
				Settings: &InboundSettings{},
			},
		},
		Outbounds: []Outbound{buildNodeOutbound(n)},
	}

	switch mode {
	case node.ModeDirect, "":
		return cfg, nil
	case node.ModeChained:
		secondaryOut, err := buildSecondaryOutbound(secondary)
		if err != nil {
			return nil, err
		}
		cfg.Outbounds = append(cfg.Outbounds, secondaryOut)
		cfg.Routing = &Routing{
			Rules: []Rule{
				{Type: "field", Network: "tcp,udp", OutboundTag: TagSecondary},
			},
		}
		return cfg, nil
	default:
		return nil, fmt.Errorf("unknown proxy mode %q", mode)
	}
}

func buildNodeOutbound(n node.Node) Outbound {
	var user User
	switch n.Protocol {
	case node.ProtocolVLESS:
		user = User{ID: n.UUID, Encryption: "none", Flow: n.Flow}
	default:
		alterID := n.AlterID
		security := n.Cipher
		if security == "" {
			security = "auto"
		}
		user = User{ID: n.UUID, AlterID: &alterID, Security: security}
	}

	network := n.Network
	if network == "" {
		network = "tcp"
	}
	stream := &StreamSettings{Network: network}

	if n.TLS == "tls" || n.TLS == "xtls" {
		serverName := n.SNI
		if serverName == "" {
			serverName = n.Server
		}
		stream.Security = n.TLS
		stream.TLSSettings = &TLSSettings{ServerName: serverName, AllowInsecure: false}
	}

	if network == "ws" {
		path := n.Path
		if path == "" {
			path = "/"
		}
		host := n.Host
		if host == "" {
			host = n.Server
		}
		stream.WSSettings = &WSSettings{
			Path:    path,
			Headers: map[string]string{"Host": host},
		}
	}

	return Outbound{
		Tag:      TagRelayNode,
		Protocol: string(n.Protocol),
		Settings: OutboundSettings{
			Vnext: []Vnext{{Address: n.Server, Port: n.Port, Users: []User{user}}},
		},
		StreamSettings: stream,
	}
}

func buildSecondaryOutbound(secondary *node.Secondary) (Outbound, error) {
	if secondary == nil || secondary.Server == "" {
		return Outbound{}, fmt.Errorf("chained mode requires a secondary proxy server")
	}
	if secondary.Port <= 0 || secondary.Port > 65535 {
		return Outbound{}, fmt.Errorf("secondary proxy port %d out of range", secondary.Port)
	}

	var protocol string
	switch secondary.Protocol {
	case "http", "":
		protocol = "http"
	case "socks5", "socks":
		protocol = "socks"
	default:
		return Outbound{}, fmt.Errorf("secondary proxy protocol %q not supported", secondary.Protocol)
	}

	server := ProxyServer{Address: secondary.Server, Port: secondary.Port}
	if secondary.Username != "" {
		server.Users = []Account{{User: secondary.Username, Pass: secondary.Password}}
	}

	return Outbound{
		Tag:      TagSecondary,
		Protocol: protocol,
		Settings: OutboundSettings{Servers: []ProxyServer{server}},
		// Upstream traffic leaves through the relay node, yielding
		// local -> node -> secondary -> Internet.
		ProxySettings: &ProxySettings{Tag: TagRelayNode},
	}, nil
}

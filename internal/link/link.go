// Package link decodes proxy share links (vmess://, vless://) into Node
// records and re-encodes vmess nodes back to share links.
package link

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/creamcroissant/relayctl/internal/node"
)

const (
	schemeVMess = "vmess://"
	schemeVLESS = "vless://"
)

// Known schemes we deliberately do not handle. Listing them lets operators
// see what a subscription contained instead of a silent drop.
var unsupportedSchemes = []string{"ss://", "ssr://", "trojan://", "hysteria2://", "hy2://", "tuic://"}

// Decode parses one share link into a Node. The returned node always carries
// a derived region and passes node.Validate.
func Decode(raw string) (node.Node, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, schemeVMess):
		return decodeVMess(raw)
	case strings.HasPrefix(raw, schemeVLESS):
		return decodeVLESS(raw)
	}
	for _, scheme := range unsupportedSchemes {
		if strings.HasPrefix(raw, scheme) {
			return node.Node{}, fmt.Errorf("%s: %w", strings.TrimSuffix(scheme, "://"), ErrUnsupportedScheme)
		}
	}
	return node.Node{}, fmt.Errorf("%q: %w", truncate(raw, 24), ErrUnsupportedScheme)
}

// vmessPayload is the flat JSON document carried by a vmess share link.
// Numeric fields arrive as either strings or numbers depending on the
// generator, hence flexInt.
type vmessPayload struct {
	PS   string  `json:"ps,omitempty"`
	Add  string  `json:"add"`
	Port flexInt `json:"port,omitempty"`
	ID   string  `json:"id"`
	Aid  flexInt `json:"aid,omitempty"`
	Net  string  `json:"net,omitempty"`
	Type string  `json:"type,omitempty"`
	TLS  string  `json:"tls,omitempty"`
	SNI  string  `json:"sni,omitempty"`
	Host string  `json:"host,omitempty"`
	Path string  `json:"path,omitempty"`
	Scy  string  `json:"scy,omitempty"`
	ALPN string  `json:"alpn,omitempty"`
}

func decodeVMess(raw string) (node.Node, error) {
	payloadText, err := decodeBase64(strings.TrimPrefix(raw, schemeVMess))
	if err != nil {
		return node.Node{}, decodeErr("vmess", "base64: %w", err)
	}

	var p vmessPayload
	if err := json.Unmarshal(payloadText, &p); err != nil {
		return node.Node{}, decodeErr("vmess", "payload: %w", err)
	}
	if p.Add == "" {
		return node.Node{}, decodeErr("vmess", "missing server address")
	}
	if _, err := uuid.Parse(p.ID); err != nil {
		return node.Node{}, decodeErr("vmess", "credential %q: %w", p.ID, err)
	}

	n := node.Node{
		Name:     p.PS,
		Server:   p.Add,
		Port:     int(p.Port),
		Protocol: node.ProtocolVMess,
		UUID:     p.ID,
		AlterID:  int(p.Aid),
		Network:  p.Net,
		Host:     p.Host,
		Path:     p.Path,
		TLS:      p.TLS,
		SNI:      p.SNI,
		ALPN:     p.ALPN,
		Cipher:   p.Scy,
		Source:   node.SourceSubscription,
	}
	if n.Name == "" {
		n.Name = "Unknown"
	}
	if n.Port == 0 {
		n.Port = 443
	}
	if n.Network == "" {
		n.Network = "tcp"
	}
	if n.SNI == "" {
		n.SNI = n.Server
	}
	if n.Cipher == "" {
		n.Cipher = "auto"
	}
	n.Region = node.ClassifyRegion(n.Name)
	if err := n.Validate(); err != nil {
		return node.Node{}, &DecodeError{Scheme: "vmess", Err: err}
	}
	return n, nil
}

func decodeVLESS(raw string) (node.Node, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return node.Node{}, decodeErr("vless", "uri: %w", err)
	}
	if u.User == nil {
		return node.Node{}, decodeErr("vless", "missing credential")
	}
	id := u.User.Username()
	if _, err := uuid.Parse(id); err != nil {
		return node.Node{}, decodeErr("vless", "credential %q: %w", id, err)
	}

	port := 443
	if u.Port() != "" {
		port, err = strconv.Atoi(u.Port())
		if err != nil {
			return node.Node{}, decodeErr("vless", "port %q: %w", u.Port(), err)
		}
	}

	params := u.Query()
	n := node.Node{
		Server:   u.Hostname(),
		Port:     port,
		Protocol: node.ProtocolVLESS,
		UUID:     id,
		Network:  params.Get("type"),
		Host:     params.Get("host"),
		Path:     params.Get("path"),
		TLS:      params.Get("security"),
		SNI:      params.Get("sni"),
		ALPN:     params.Get("alpn"),
		Flow:     params.Get("flow"),
		Source:   node.SourceSubscription,
	}
	// url.Parse already percent-decoded the fragment.
	if u.Fragment != "" {
		n.Name = u.Fragment
	} else {
		n.Name = "Unknown"
	}
	if n.Network == "" {
		n.Network = "tcp"
	}
	if n.SNI == "" {
		n.SNI = n.Server
	}
	if n.Path == "" {
		n.Path = "/"
	}
	n.Region = node.ClassifyRegion(n.Name)
	if err := n.Validate(); err != nil {
		return node.Node{}, &DecodeError{Scheme: "vless", Err: err}
	}
	return n, nil
}

// EncodeVMess renders a vmess node back into its share-link form.
func EncodeVMess(n node.Node) (string, error) {
	if n.Protocol != node.ProtocolVMess {
		return "", fmt.Errorf("encode: node %q is %s, not vmess", n.Name, n.Protocol)
	}
	p := vmessPayload{
		PS:   n.Name,
		Add:  n.Server,
		Port: flexInt(n.Port),
		ID:   n.UUID,
		Aid:  flexInt(n.AlterID),
		Net:  n.Network,
		TLS:  n.TLS,
		SNI:  n.SNI,
		Host: n.Host,
		Path: n.Path,
		Scy:  n.Cipher,
		ALPN: n.ALPN,
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode vmess payload: %w", err)
	}
	return schemeVMess + base64.StdEncoding.EncodeToString(payload), nil
}

// flexInt accepts both JSON numbers and numeric strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.Atoi(string(data))
	if err != nil {
		return err
	}
	*f = flexInt(v)
	return nil
}

func (f flexInt) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(f))), nil
}

// decodeBase64 tries the padding and alphabet variants seen in the wild.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		decoded, err := enc.DecodeString(s)
		if err == nil {
			return decoded, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

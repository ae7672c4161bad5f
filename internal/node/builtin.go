package node

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultUUID is the shared credential for the built-in fallback nodes.
const DefaultUUID = "39a279a5-55bb-3a27-ad9b-6ec81ff5779a"

//go:embed builtin.yaml
var builtinYAML []byte

// Builtin returns the embedded fallback node list. Every entry is a vmess
// node with the default credential.
func Builtin() ([]Node, error) {
	var nodes []Node
	if err := yaml.Unmarshal(builtinYAML, &nodes); err != nil {
		return nil, fmt.Errorf("decode builtin nodes: %w", err)
	}
	for i := range nodes {
		nodes[i].Protocol = ProtocolVMess
		nodes[i].UUID = DefaultUUID
		nodes[i].Source = SourceBuiltin
		if nodes[i].Network == "" {
			nodes[i].Network = "tcp"
		}
		if nodes[i].Region == "" {
			nodes[i].Region = RegionOther
		}
	}
	return nodes, nil
}

package node

import "strings"

// Subscription feeds often inject informational pseudo-nodes (remaining
// traffic, expiry date) that must never be probed or selected.
var metadataMarkers = []string{
	"剩余流量",
	"过期时间",
	"traffic",
	"expire",
	"remaining",
}

// Catalog merges subscription nodes with the built-in fallback list.
type Catalog struct {
	// Loader returns the current subscription node set; nil or empty means
	// no usable snapshot exists.
	Loader func() ([]Node, error)
}

// Available returns the subscription nodes when a snapshot with at least one
// node exists, otherwise the built-in list.
func (c *Catalog) Available() ([]Node, error) {
	if c != nil && c.Loader != nil {
		nodes, err := c.Loader()
		if err != nil {
			return nil, err
		}
		if len(nodes) > 0 {
			return nodes, nil
		}
	}
	return Builtin()
}

// Valid filters out metadata pseudo-nodes and entries missing server or port.
func Valid(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if isMetadata(n.Name) {
			continue
		}
		if n.Server == "" || n.Port <= 0 {
			continue
		}
		out = append(out, n)
	}
	return out
}

func isMetadata(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range metadataMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

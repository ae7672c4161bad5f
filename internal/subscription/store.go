package subscription

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/creamcroissant/relayctl/internal/node"
)

// Snapshot is the persisted state of the last successful fetch.
type Snapshot struct {
	URL            string          `json:"url"`
	Nodes          []node.Node     `json:"nodes"`
	UpdateTime     int64           `json:"update_time"`
	SelectedIndex  int             `json:"selected_index"`
	ProxyMode      node.Mode       `json:"proxy_mode,omitempty"`
	SecondaryProxy *node.Secondary `json:"secondary_proxy,omitempty"`
}

// IndexOf returns n's position within the snapshot's own node list, or -1
// when no entry matches. Selection is stored in this space so the index
// stays meaningful alongside metadata pseudo-nodes.
func (s *Snapshot) IndexOf(n node.Node) int {
	for i, cand := range s.Nodes {
		if cand.Server == n.Server && cand.Port == n.Port && cand.Name == n.Name {
			return i
		}
	}
	return -1
}

// Selected returns the node SelectedIndex points at, when in range.
func (s *Snapshot) Selected() (node.Node, bool) {
	if s.SelectedIndex < 0 || s.SelectedIndex >= len(s.Nodes) {
		return node.Node{}, false
	}
	return s.Nodes[s.SelectedIndex], true
}

// Store persists the subscription snapshot as a single JSON document.
// Every write copies the previous file to a .backup suffix first, so a
// failed write never destroys the last-known-good copy.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a snapshot store rooted at path.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the snapshot file location.
func (s *Store) Path() string { return s.path }

// BackupPath returns the copy-aside location used before each overwrite.
func (s *Store) BackupPath() string { return s.path + ".backup" }

// Load reads the current snapshot. A missing file yields (nil, nil).
func (s *Store) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}
	return &snap, nil
}

// Nodes returns the persisted node set, or nil when no snapshot exists.
func (s *Store) Nodes() ([]node.Node, error) {
	snap, err := s.Load()
	if err != nil || snap == nil {
		return nil, err
	}
	return snap.Nodes, nil
}

// Save overwrites the snapshot with a fresh fetch result. Mode, secondary
// proxy and selection survive from the previous snapshot.
func (s *Store) Save(url string, nodes []node.Node) error {
	snap := Snapshot{
		URL:        url,
		Nodes:      nodes,
		UpdateTime: time.Now().Unix(),
	}
	if prev, err := s.Load(); err == nil && prev != nil {
		snap.SelectedIndex = prev.SelectedIndex
		snap.ProxyMode = prev.ProxyMode
		snap.SecondaryProxy = prev.SecondaryProxy
	}
	return s.write(&snap)
}

// SetSelected persists the index of the node the operator applied.
func (s *Store) SetSelected(index int) error {
	return s.mutate(func(snap *Snapshot) {
		snap.SelectedIndex = index
	})
}

// SetMode persists the proxy topology and (for chained mode) the secondary
// relay target.
func (s *Store) SetMode(mode node.Mode, secondary *node.Secondary) error {
	return s.mutate(func(snap *Snapshot) {
		snap.ProxyMode = mode
		snap.SecondaryProxy = secondary
	})
}

func (s *Store) mutate(apply func(*Snapshot)) error {
	snap, err := s.Load()
	if err != nil {
		return err
	}
	if snap == nil {
		snap = &Snapshot{}
	}
	apply(snap)
	return s.write(snap)
}

func (s *Store) write(snap *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	// Best-effort backup; a failed copy must not block the save.
	if _, err := os.Stat(s.path); err == nil {
		if err := copyFile(s.path, s.BackupPath()); err != nil {
			s.logger.Warn("snapshot backup failed", "error", err)
		}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

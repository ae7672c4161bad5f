package subscription

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/relayctl/internal/node"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "subscription.json"), testLogger())
}

func sampleNodes() []node.Node {
	return []node.Node{
		{Name: "HK-01", Server: "hk1.example.com", Port: 443, Protocol: node.ProtocolVMess, UUID: testUUID},
		{Name: "JP-01", Server: "jp1.example.com", Port: 443, Protocol: node.ProtocolVLESS, UUID: testUUID},
	}
}

func TestSnapshotIndexOf(t *testing.T) {
	// Metadata pseudo-nodes shift positions, so selection must be stored in
	// the snapshot's own numbering, not the filtered one.
	snap := &Snapshot{Nodes: append([]node.Node{
		{Name: "剩余流量: 42GB", Server: "pseudo.example.com", Port: 443},
	}, sampleNodes()...)}

	valid := node.Valid(snap.Nodes)
	require.Len(t, valid, 2)

	assert.Equal(t, 1, snap.IndexOf(valid[0]))
	assert.Equal(t, 2, snap.IndexOf(valid[1]))
	assert.Equal(t, -1, snap.IndexOf(node.Node{Name: "gone", Server: "x", Port: 1}))
}

func TestSnapshotSelected(t *testing.T) {
	snap := &Snapshot{Nodes: sampleNodes(), SelectedIndex: 1}

	n, ok := snap.Selected()
	require.True(t, ok)
	assert.Equal(t, "JP-01", n.Name)

	snap.SelectedIndex = 5
	_, ok = snap.Selected()
	assert.False(t, ok)
}

func TestStoreLoadMissing(t *testing.T) {
	snap, err := tempStore(t).Load()
	require.NoError(t, err)
	assert.Nil(t, snap)

	nodes, err := tempStore(t).Nodes()
	require.NoError(t, err)
	assert.Nil(t, nodes)
}

func TestStoreSaveAndLoad(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Save("https://feed.example.com/sub", sampleNodes()))

	snap, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, "https://feed.example.com/sub", snap.URL)
	assert.Len(t, snap.Nodes, 2)
	assert.NotZero(t, snap.UpdateTime)
	assert.Equal(t, "HK-01", snap.Nodes[0].Name)
	assert.Equal(t, node.ProtocolVLESS, snap.Nodes[1].Protocol)
}

func TestStoreSavePreservesSelection(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Save("https://feed.example.com/sub", sampleNodes()))
	require.NoError(t, store.SetSelected(1))
	require.NoError(t, store.SetMode(node.ModeChained, &node.Secondary{
		Server: "relay.example.com", Port: 1080, Protocol: "socks5",
	}))

	// A refresh must not reset operator choices.
	require.NoError(t, store.Save("https://feed.example.com/sub", sampleNodes()))

	snap, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.SelectedIndex)
	assert.Equal(t, node.ModeChained, snap.ProxyMode)
	require.NotNil(t, snap.SecondaryProxy)
	assert.Equal(t, "relay.example.com", snap.SecondaryProxy.Server)
}

func TestStoreSetModeOnEmptyStore(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.SetMode(node.ModeDirect, nil))

	snap, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, node.ModeDirect, snap.ProxyMode)
	assert.Nil(t, snap.SecondaryProxy)
}

func TestStoreWritesBackupBeforeOverwrite(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Save("https://feed.example.com/v1", sampleNodes()))

	first, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	require.NoError(t, store.Save("https://feed.example.com/v2", sampleNodes()[:1]))

	backup, err := os.ReadFile(store.BackupPath())
	require.NoError(t, err)
	assert.Equal(t, first, backup)

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "https://feed.example.com/v2", snap.URL)
	assert.Len(t, snap.Nodes, 1)
}

func TestStoreNoBackupOnFirstWrite(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Save("https://feed.example.com/sub", sampleNodes()))

	_, err := os.Stat(store.BackupPath())
	assert.True(t, os.IsNotExist(err))
}

func TestStoreLoadCorruptSnapshot(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o644))

	_, err := store.Load()
	assert.Error(t, err)
}

func TestStoreSnapshotShape(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Save("https://feed.example.com/sub", sampleNodes()))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "url")
	assert.Contains(t, doc, "nodes")
	assert.Contains(t, doc, "update_time")
	assert.Contains(t, doc, "selected_index")
}

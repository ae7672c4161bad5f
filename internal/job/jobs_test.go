package job

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/relayctl/internal/subscription"
)

const testUUID = "39a279a5-55bb-3a27-ad9b-6ec81ff5779a"

func feedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSubscriptionRefresh(t *testing.T) {
	payload := `{"ps":"HK-01","add":"hk1.example.com","port":"443","id":"` + testUUID + `"}`
	feed := "vmess://" + base64.StdEncoding.EncodeToString([]byte(payload))
	srv := feedServer(t, feed)

	store := subscription.NewStore(filepath.Join(t.TempDir(), "sub.json"), testLogger())
	j := &SubscriptionRefresh{
		URL:     srv.URL,
		Fetcher: subscription.NewFetcher(0, testLogger()),
		Store:   store,
		Logger:  testLogger(),
	}

	require.NoError(t, j.Run(context.Background()))

	snap, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, srv.URL, snap.URL)
	require.Len(t, snap.Nodes, 1)
	assert.Equal(t, "HK-01", snap.Nodes[0].Name)
}

func TestSubscriptionRefreshRequiresURL(t *testing.T) {
	j := &SubscriptionRefresh{
		Fetcher: subscription.NewFetcher(0, testLogger()),
		Store:   subscription.NewStore(filepath.Join(t.TempDir(), "sub.json"), testLogger()),
		Logger:  testLogger(),
	}
	assert.Error(t, j.Run(context.Background()))
}

func TestSubscriptionRefreshKeepsSnapshotOnEmptyFeed(t *testing.T) {
	srv := feedServer(t, "no links here\n")

	path := filepath.Join(t.TempDir(), "sub.json")
	store := subscription.NewStore(path, testLogger())
	require.NoError(t, store.Save("https://old.example.com/sub", nil))

	j := &SubscriptionRefresh{
		URL:     srv.URL,
		Fetcher: subscription.NewFetcher(0, testLogger()),
		Store:   store,
		Logger:  testLogger(),
	}
	require.Error(t, j.Run(context.Background()))

	snap, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "https://old.example.com/sub", snap.URL)
}

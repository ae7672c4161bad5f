package subscription

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/relayctl/internal/node"
)

const testUUID = "39a279a5-55bb-3a27-ad9b-6ec81ff5779a"

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func vmessLine(payload string) string {
	return "vmess://" + base64.StdEncoding.EncodeToString([]byte(payload))
}

func testFeed() string {
	return strings.Join([]string{
		vmessLine(`{"ps":"HK-01","add":"hk1.example.com","port":"443","id":"` + testUUID + `"}`),
		vmessLine(`{"ps":"JP-01","add":"jp1.example.com","port":"443","id":"` + testUUID + `"}`),
		"vless://" + testUUID + "@sg1.example.com:443?type=tcp#SG-01",
	}, "\n")
}

func TestFetchPlainFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testFeed()))
	}))
	defer srv.Close()

	nodes, err := NewFetcher(0, testLogger()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, "HK-01", nodes[0].Name)
	assert.Equal(t, "JP-01", nodes[1].Name)
	assert.Equal(t, "SG-01", nodes[2].Name)
	assert.Equal(t, node.ProtocolVLESS, nodes[2].Protocol)
}

func TestFetchBase64WrappedFeed(t *testing.T) {
	wrapped := base64.StdEncoding.EncodeToString([]byte(testFeed()))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(wrapped))
	}))
	defer srv.Close()

	nodes, err := NewFetcher(0, testLogger()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, nodes, 3)
}

func TestFetchSkipsBadLines(t *testing.T) {
	feed := strings.Join([]string{
		vmessLine(`{"ps":"HK-01","add":"hk1.example.com","port":"443","id":"` + testUUID + `"}`),
		"ss://unsupported@host:8388#skip-me",
		"vmess://!!!broken!!!",
		"",
		vmessLine(`{"ps":"JP-01","add":"jp1.example.com","port":"443","id":"` + testUUID + `"}`),
	}, "\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	nodes, err := NewFetcher(0, testLogger()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "HK-01", nodes[0].Name)
	assert.Equal(t, "JP-01", nodes[1].Name)
}

func TestFetchHTTPErrorIsNotRetried(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewFetcher(0, testLogger()).Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusForbidden, fe.StatusCode)
	assert.Equal(t, 1, hits)
}

func TestFetchRetriesTransportErrors(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 2 {
			// Close the connection mid-flight to force a client error.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		_, _ = w.Write([]byte(testFeed()))
	}))
	defer srv.Close()

	nodes, err := NewFetcher(0, testLogger()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, nodes, 3)
	assert.Equal(t, 2, hits)
}

func TestFetchBadURL(t *testing.T) {
	_, err := NewFetcher(0, testLogger()).Fetch(context.Background(), "http://\x00bad")
	require.Error(t, err)

	var fe *FetchError
	assert.ErrorAs(t, err, &fe)
}

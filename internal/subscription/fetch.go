// Package subscription fetches remote node feeds and persists the resulting
// snapshot with backup-before-overwrite semantics.
package subscription

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/creamcroissant/relayctl/internal/link"
	"github.com/creamcroissant/relayctl/internal/node"
)

const defaultFetchTimeout = 30 * time.Second

// FetchError reports a failed subscription download. The caller ends up with
// no nodes, never with a partial set.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch subscription %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch subscription %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher downloads and decodes a subscription feed.
type Fetcher struct {
	client     *http.Client
	logger     *slog.Logger
	maxRetries uint64
}

// NewFetcher builds a Fetcher with the given per-request timeout.
func NewFetcher(timeout time.Duration, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
		maxRetries: 2,
	}
}

// Fetch downloads the feed and decodes every line it understands. Per-line
// decode failures are logged and skipped; transport errors are retried with
// exponential backoff, HTTP error statuses are not.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]node.Node, error) {
	var body []byte

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(&FetchError{URL: url, Err: err})
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return &FetchError{URL: url, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(&FetchError{URL: url, StatusCode: resp.StatusCode})
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return &FetchError{URL: url, Err: err}
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(newFetchBackoff(), f.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, &FetchError{URL: url, Err: err}
	}

	return f.decodeBody(body), nil
}

func (f *Fetcher) decodeBody(body []byte) []node.Node {
	text := strings.TrimSpace(string(body))
	// The whole document may be base64-wrapped; if not, use it as-is.
	if decoded, err := decodeWhole(text); err == nil {
		text = decoded
	}

	var nodes []node.Node
	var skipped int
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		n, err := link.Decode(line)
		if err != nil {
			skipped++
			if errors.Is(err, link.ErrUnsupportedScheme) {
				f.logger.Warn("subscription entry not supported", "error", err)
			} else {
				f.logger.Warn("subscription entry skipped", "error", err)
			}
			continue
		}
		nodes = append(nodes, n)
	}

	f.logger.Info("subscription decoded", "nodes", len(nodes), "skipped", skipped)
	return nodes
}

func decodeWhole(text string) (string, error) {
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding} {
		if decoded, err := enc.DecodeString(strings.ReplaceAll(text, "\n", "")); err == nil {
			return string(decoded), nil
		}
	}
	return "", errors.New("not base64")
}

func newFetchBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Package probe measures TCP reachability and round-trip latency for relay
// nodes with a bounded worker pool.
package probe

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/creamcroissant/relayctl/internal/node"
)

// Status is the outcome class of a probe pass.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
	StatusError   Status = "error"
)

// SentinelLatency is reported when no attempt connected.
const SentinelLatency = 9999

// Result is the outcome of probing one node. Ephemeral, never persisted.
type Result struct {
	Node        node.Node
	Status      Status
	LatencyMS   float64
	SuccessRate float64
	Err         error
}

// Online reports whether at least one attempt connected.
func (r Result) Online() bool { return r.Status == StatusOnline }

// Options tune a Prober. Zero values fall back to the defaults the tool has
// always used: 5s timeout, 3 attempts, 200ms pause, 5 workers.
type Options struct {
	Timeout  time.Duration
	Attempts int
	Pause    time.Duration
	Workers  int
}

// Prober runs latency probes against node addresses.
type Prober struct {
	timeout  time.Duration
	attempts int
	pause    time.Duration
	workers  int
}

// New creates a Prober.
func New(opts Options) *Prober {
	p := &Prober{
		timeout:  opts.Timeout,
		attempts: opts.Attempts,
		pause:    opts.Pause,
		workers:  opts.Workers,
	}
	if p.timeout <= 0 {
		p.timeout = 5 * time.Second
	}
	if p.attempts <= 0 {
		p.attempts = 3
	}
	if p.pause <= 0 {
		p.pause = 200 * time.Millisecond
	}
	if p.workers <= 0 {
		p.workers = 5
	}
	return p
}

// Probe runs sequential connect-and-close attempts against the node and
// averages the successful round trips. Zero successes means offline with the
// sentinel latency.
func (p *Prober) Probe(ctx context.Context, n node.Node) Result {
	res := Result{Node: n, Status: StatusOffline, LatencyMS: SentinelLatency}
	if n.Server == "" || n.Port <= 0 {
		res.Status = StatusError
		res.Err = fmt.Errorf("node %q has no address", n.Name)
		return res
	}

	dialer := net.Dialer{Timeout: p.timeout}
	addr := n.Addr()

	var total float64
	var successes int
	for attempt := 0; attempt < p.attempts; attempt++ {
		if attempt > 0 {
			// Pause between attempts to avoid bursting.
			timer := time.NewTimer(p.pause)
			select {
			case <-ctx.Done():
				timer.Stop()
				return p.finish(res, total, successes, attempt)
			case <-timer.C:
			}
		}

		start := time.Now()
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			if ctx.Err() != nil {
				return p.finish(res, total, successes, attempt+1)
			}
			continue
		}
		total += float64(time.Since(start)) / float64(time.Millisecond)
		successes++
		_ = conn.Close()
	}

	return p.finish(res, total, successes, p.attempts)
}

func (p *Prober) finish(res Result, total float64, successes, attempts int) Result {
	if attempts <= 0 {
		attempts = 1
	}
	res.SuccessRate = float64(successes) / float64(attempts)
	if successes > 0 {
		res.Status = StatusOnline
		res.LatencyMS = total / float64(successes)
	}
	return res
}

// ProbeAll probes nodes concurrently and returns results aligned with the
// input order. Completion order is independent of submission order; one
// node's failure never aborts the rest.
func (p *Prober) ProbeAll(ctx context.Context, nodes []node.Node) []Result {
	results := make([]Result, len(nodes))
	if len(nodes) == 0 {
		return results
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := p.workers
	if workers > len(nodes) {
		workers = len(nodes)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.probeIsolated(ctx, nodes[i])
			}
		}()
	}

	for i := range nodes {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// probeIsolated shields the pool from a panicking probe.
func (p *Prober) probeIsolated(ctx context.Context, n node.Node) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Node:      n,
				Status:    StatusError,
				LatencyMS: SentinelLatency,
				Err:       fmt.Errorf("probe panic: %v", r),
			}
		}
	}()
	return p.Probe(ctx, n)
}

// Rank returns the index of the best online result: minimum latency, ties
// broken by input order. ok is false when nothing is online.
func Rank(results []Result) (int, bool) {
	best := -1
	for i, r := range results {
		if !r.Online() {
			continue
		}
		if best == -1 || r.LatencyMS < results[best].LatencyMS {
			best = i
		}
	}
	return best, best >= 0
}

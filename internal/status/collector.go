// Package status gathers the live state of the relay service, the active
// node and the subscription snapshot for display.
package status

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shirou/gopsutil/v3/host"

	"github.com/creamcroissant/relayctl/internal/initsys"
	"github.com/creamcroissant/relayctl/internal/node"
	"github.com/creamcroissant/relayctl/internal/probe"
	"github.com/creamcroissant/relayctl/internal/relay"
	"github.com/creamcroissant/relayctl/internal/subscription"
)

// latencyTTL keeps the watch view from re-dialing the node on every refresh
// tick.
const latencyTTL = 30 * time.Second

// Data is one sampled status snapshot.
type Data struct {
	CollectedAt   time.Time
	ServiceActive bool

	// Active node, resolved by matching the live config's first outbound
	// against the catalog. Node is nil when the target is unknown.
	Node     *node.Node
	Target   string
	Protocol string

	// Latency of the active node; nil when nothing is configured.
	Latency *probe.Result

	SubscriptionURL     string
	SubscriptionCount   int
	SubscriptionUpdated time.Time

	HostUptime time.Duration
}

// Collector samples status data.
type Collector struct {
	initSys    initsys.InitSystem
	service    string
	configPath string
	catalog    *node.Catalog
	store      *subscription.Store
	prober     *probe.Prober
	cache      *gocache.Cache
	logger     *slog.Logger
}

// NewCollector wires a Collector. configPath is the canonical relay config
// location.
func NewCollector(initSys initsys.InitSystem, service, configPath string, catalog *node.Catalog, store *subscription.Store, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		initSys:    initSys,
		service:    service,
		configPath: configPath,
		catalog:    catalog,
		store:      store,
		// Status probes are lighter than selection probes: 2 attempts, 3s.
		prober: probe.New(probe.Options{Timeout: 3 * time.Second, Attempts: 2}),
		cache:  gocache.New(latencyTTL, time.Minute),
		logger: logger,
	}
}

// Collect samples everything. Individual failures degrade the snapshot
// instead of failing it; a status view must render even on a broken host.
func (c *Collector) Collect(ctx context.Context) Data {
	data := Data{CollectedAt: time.Now()}

	if c.initSys != nil {
		running, err := c.initSys.Status(ctx, c.service)
		if err != nil {
			c.logger.Warn("service status check failed", "error", err)
		}
		data.ServiceActive = running
	}

	c.collectNode(ctx, &data)
	c.collectSubscription(&data)

	if uptime, err := host.UptimeWithContext(ctx); err == nil {
		data.HostUptime = time.Duration(uptime) * time.Second
	}

	return data
}

func (c *Collector) collectNode(ctx context.Context, data *Data) {
	cfg, err := relay.LoadConfig(c.configPath)
	if err != nil {
		return
	}
	server, port, protocol, ok := cfg.PrimaryTarget()
	data.Protocol = protocol
	if !ok {
		return
	}

	current := node.Node{
		Name:     "Unknown Node",
		Server:   server,
		Port:     port,
		Protocol: node.Protocol(protocol),
		Region:   node.RegionOther,
	}
	data.Target = current.Addr()

	if c.catalog != nil {
		if nodes, err := c.catalog.Available(); err == nil {
			for i := range nodes {
				if nodes[i].Server == server && nodes[i].Port == port {
					current = nodes[i]
					break
				}
			}
		}
	}
	data.Node = &current

	if cached, found := c.cache.Get(data.Target); found {
		if res, ok := cached.(probe.Result); ok {
			data.Latency = &res
			return
		}
	}
	res := c.prober.Probe(ctx, current)
	c.cache.Set(data.Target, res, gocache.DefaultExpiration)
	data.Latency = &res
}

func (c *Collector) collectSubscription(data *Data) {
	if c.store == nil {
		return
	}
	snap, err := c.store.Load()
	if err != nil || snap == nil {
		return
	}
	data.SubscriptionURL = snap.URL
	data.SubscriptionCount = len(snap.Nodes)
	data.SubscriptionUpdated = time.Unix(snap.UpdateTime, 0)
}

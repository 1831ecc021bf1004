package trace

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rmacdonaldsmith/aomesh/internal/evtpool"
	"github.com/rmacdonaldsmith/aomesh/pkg/pubsub"
)

// Metrics counts publishes and subscription changes per signal.
type Metrics struct {
	name          SignalNamer
	publishes     *prometheus.CounterVec
	subscribes    *prometheus.CounterVec
	unsubscribes  *prometheus.CounterVec
	dynamicEvents prometheus.Counter
}

// NewMetrics registers the tracer's counters on reg. A nil namer uses Numeric.
func NewMetrics(reg prometheus.Registerer, name SignalNamer) *Metrics {
	if name == nil {
		name = Numeric
	}
	f := promauto.With(reg)
	return &Metrics{
		name: name,
		publishes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aomesh_publish_total",
			Help: "Events published, by signal",
		}, []string{"signal"}),
		subscribes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aomesh_subscribe_total",
			Help: "Subscriptions added, by signal",
		}, []string{"signal"}),
		unsubscribes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aomesh_unsubscribe_total",
			Help: "Subscriptions removed, by signal",
		}, []string{"signal"}),
		dynamicEvents: f.NewCounter(prometheus.CounterOpts{
			Name: "aomesh_publish_pooled_total",
			Help: "Published events that came from an event pool",
		}),
	}
}

func (m *Metrics) OnPublish(r pubsub.PublishRecord) {
	m.publishes.WithLabelValues(m.name(r.Signal)).Inc()
	if r.PoolID != 0 {
		m.dynamicEvents.Inc()
	}
}

func (m *Metrics) OnSubscribe(r pubsub.SubscriptionRecord) {
	m.subscribes.WithLabelValues(m.name(r.Signal)).Inc()
}

func (m *Metrics) OnUnsubscribe(r pubsub.SubscriptionRecord) {
	m.unsubscribes.WithLabelValues(m.name(r.Signal)).Inc()
}

// PoolCollector exports event pool occupancy. It implements
// prometheus.Collector so values are read at scrape time.
type PoolCollector struct {
	stats   func() []evtpool.Stats
	free    *prometheus.Desc
	minFree *prometheus.Desc
	blocks  *prometheus.Desc
}

// NewPoolCollector creates a collector reading from stats.
func NewPoolCollector(stats func() []evtpool.Stats) *PoolCollector {
	labels := []string{"pool"}
	return &PoolCollector{
		stats:   stats,
		free:    prometheus.NewDesc("aomesh_pool_free_blocks", "Free blocks in the event pool", labels, nil),
		minFree: prometheus.NewDesc("aomesh_pool_min_free_blocks", "Lowest number of free blocks observed", labels, nil),
		blocks:  prometheus.NewDesc("aomesh_pool_blocks", "Total blocks in the event pool", labels, nil),
	}
}

// Describe is part of the implementation of prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.free
	ch <- c.minFree
	ch <- c.blocks
}

// Collect is part of the implementation of prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.stats() {
		id := strconv.Itoa(int(s.ID))
		ch <- prometheus.MustNewConstMetric(c.free, prometheus.GaugeValue, float64(s.Free), id)
		ch <- prometheus.MustNewConstMetric(c.minFree, prometheus.GaugeValue, float64(s.MinFree), id)
		ch <- prometheus.MustNewConstMetric(c.blocks, prometheus.GaugeValue, float64(s.Blocks), id)
	}
}

var (
	_ pubsub.Tracer        = (*Metrics)(nil)
	_ prometheus.Collector = (*PoolCollector)(nil)
)

package admin

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "taskbridge"

var (
	spawnedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "runtime", "jobs_spawned_total"),
		"Jobs spawned by bridge handles.", nil, nil)
	finishedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "runtime", "jobs_finished_total"),
		"Jobs that returned, by outcome.", []string{"outcome"}, nil)
	inFlightDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "runtime", "jobs_in_flight"),
		"Jobs spawned that have not returned yet.", nil, nil)
	blockingActiveDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "pool", "blocking_active"),
		"Blocking computations currently running.", nil, nil)
	blockingSizeDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "pool", "blocking_size"),
		"Maximum concurrent blocking computations.", nil, nil)
)

// Collector exposes runtime statistics as Prometheus metrics. Values are read from the
// source on every scrape.
type Collector struct {
	stats StatsSource
}

// NewCollector creates a Collector reading from stats.
func NewCollector(stats StatsSource) *Collector {
	return &Collector{stats: stats}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- spawnedDesc
	ch <- finishedDesc
	ch <- inFlightDesc
	ch <- blockingActiveDesc
	ch <- blockingSizeDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.stats.Stats()

	ch <- prometheus.MustNewConstMetric(spawnedDesc, prometheus.CounterValue, float64(snap.Spawned))
	for outcome, n := range map[string]uint64{
		"delivered": snap.Delivered,
		"stale":     snap.Stale,
		"dropped":   snap.Dropped,
		"failed":    snap.Failed,
		"panicked":  snap.Panicked,
	} {
		ch <- prometheus.MustNewConstMetric(finishedDesc, prometheus.CounterValue, float64(n), outcome)
	}
	ch <- prometheus.MustNewConstMetric(inFlightDesc, prometheus.GaugeValue, float64(snap.InFlight))
	ch <- prometheus.MustNewConstMetric(blockingActiveDesc, prometheus.GaugeValue, float64(snap.BlockingActive))
	ch <- prometheus.MustNewConstMetric(blockingSizeDesc, prometheus.GaugeValue, float64(snap.BlockingSize))
}

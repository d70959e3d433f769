// Package metric exposes engine state as Prometheus metrics.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tomat0w0/bid-anti-corruption/pkg/engine"
)

const namespace = "tendercheck"

// Collector reads engine state on scrape. It holds no metric state of its
// own, so a snapshot swap is reflected immediately.
type Collector struct {
	engine *engine.Engine

	snapshotVersion *prometheus.Desc
	rulesTotal      *prometheus.Desc
	rulesPerLevel   *prometheus.Desc
	rulesPerTag     *prometheus.Desc
	analysesTotal   *prometheus.Desc
	findingsTotal   *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a [Collector] for the given engine.
func NewCollector(e *engine.Engine) *Collector {
	return &Collector{
		engine: e,
		snapshotVersion: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "ruleset", "snapshot_version"),
			"Version token of the active rule set snapshot.",
			nil, nil,
		),
		rulesTotal: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "ruleset", "rules"),
			"Number of rules in the active snapshot.",
			nil, nil,
		),
		rulesPerLevel: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "ruleset", "rules_per_level"),
			"Number of rules in the active snapshot by severity level.",
			[]string{"level"}, nil,
		),
		rulesPerTag: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "ruleset", "rules_per_tag"),
			"Number of rules in the active snapshot by tag.",
			[]string{"tag"}, nil,
		),
		analysesTotal: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "analysis", "analyses_total"),
			"Total number of completed document analyses.",
			nil, nil,
		),
		findingsTotal: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "analysis", "findings_total"),
			"Total number of findings emitted across all analyses.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.snapshotVersion
	ch <- c.rulesTotal
	ch <- c.rulesPerLevel
	ch <- c.rulesPerTag
	ch <- c.analysesTotal
	ch <- c.findingsTotal
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.engine.Stats()

	var version float64
	if snap := c.engine.Snapshot(); snap != nil {
		version = float64(snap.Version())
	}

	ch <- prometheus.MustNewConstMetric(c.snapshotVersion, prometheus.GaugeValue, version)
	ch <- prometheus.MustNewConstMetric(c.rulesTotal, prometheus.GaugeValue, float64(stats.RuleCount))

	for level, count := range stats.PerLevel {
		ch <- prometheus.MustNewConstMetric(c.rulesPerLevel, prometheus.GaugeValue,
			float64(count), string(level))
	}

	for tag, count := range stats.PerTag {
		ch <- prometheus.MustNewConstMetric(c.rulesPerTag, prometheus.GaugeValue,
			float64(count), tag)
	}

	ch <- prometheus.MustNewConstMetric(c.analysesTotal, prometheus.CounterValue,
		float64(c.engine.AnalysisCount()))
	ch <- prometheus.MustNewConstMetric(c.findingsTotal, prometheus.CounterValue,
		float64(c.engine.FindingCount()))
}

package output

import (
	"strconv"

	"github.com/daryltucker/memory-runner/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector exposes run results as Prometheus gauges, for the
// node_exporter textfile collector or a one-shot scrape.
type MetricsCollector struct {
	registry   *prometheus.Registry
	probe      *prometheus.GaugeVec
	pageFaults *prometheus.GaugeVec
	sizeMB     *prometheus.GaugeVec
}

// NewMetricsCollector creates a collector with its own registry.
func NewMetricsCollector() *MetricsCollector {
	labels := []string{"scenario", "runtime"}
	c := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		probe: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "memory_runner",
			Name:      "probe_seconds",
			Help:      "Wall-clock seconds spent in a memory probe.",
		}, append(labels, "probe")),
		pageFaults: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "memory_runner",
			Name:      "page_faults",
			Help:      "Page faults raised while a scenario ran.",
		}, append(labels, "kind")),
		sizeMB: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "memory_runner",
			Name:      "scenario_size_megabytes",
			Help:      "Buffer size of a scenario.",
		}, append(labels, "iterations")),
	}
	c.registry.MustRegister(c.probe, c.pageFaults, c.sizeMB)
	return c
}

// Write records one result. It implements engine.Sink.
func (c *MetricsCollector) Write(r model.Result) error {
	m := r.Metrics
	for probe, secs := range map[string]float64{
		"allocation":        m.AllocationSeconds,
		"allocate_and_free": m.AllocateAndFreeSeconds,
		"writes":            m.WritesSeconds,
		"reads":             m.ReadsSeconds,
	} {
		c.probe.WithLabelValues(r.ScenarioID, r.RuntimeLabel, probe).Set(secs)
	}

	// Unavailable counters are omitted rather than exported as zero.
	if m.PageFaultsMinor != nil {
		c.pageFaults.WithLabelValues(r.ScenarioID, r.RuntimeLabel, "minor").Set(float64(*m.PageFaultsMinor))
	}
	if m.PageFaultsMajor != nil {
		c.pageFaults.WithLabelValues(r.ScenarioID, r.RuntimeLabel, "major").Set(float64(*m.PageFaultsMajor))
	}

	c.sizeMB.WithLabelValues(r.ScenarioID, r.RuntimeLabel, strconv.Itoa(r.Iterations)).Set(r.SizeMB)
	return nil
}

// Registry exposes the underlying registry (e.g. for an HTTP handler or tests).
func (c *MetricsCollector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes everything collected so far in the Prometheus text format.
func (c *MetricsCollector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

// Package metrics counts summary generations and week loads in a
// prometheus registry and exports them for the node-exporter textfile
// collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chris/worklog/internal/summarize"
)

// Collector implements summarize.Recorder and history.LoadRecorder
type Collector struct {
	generations *prometheus.CounterVec
	weekLoads   *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worklog_summary_generations_total",
			Help: "Summary generation attempts by terminal card state.",
		}, []string{"state"}),
		weekLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worklog_week_loads_total",
			Help: "Week fetches by the history loader, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(c.generations, c.weekLoads)

	// Export every series from the start, even at zero
	for _, s := range summarize.States {
		c.generations.WithLabelValues(string(s))
	}
	c.weekLoads.WithLabelValues("ok")
	c.weekLoads.WithLabelValues("failed")

	return c
}

// ObserveGeneration counts one generation ending in state
func (c *Collector) ObserveGeneration(state summarize.CardState) {
	c.generations.WithLabelValues(string(state)).Inc()
}

// ObserveWeekLoad counts one loader week fetch
func (c *Collector) ObserveWeekLoad(ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	c.weekLoads.WithLabelValues(result).Inc()
}

// WriteTextfile writes everything in g to path in the text exposition
// format. Creates parent directory if needed.
func WriteTextfile(g prometheus.Gatherer, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry       *prom.Registry
	targetDuration *prom.HistogramVec
	syncDuration   prom.Histogram
	targetResults  *prom.CounterVec
	linesChanged   *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the sync metrics. A nil registry
// gets a private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.targetDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "metasync",
		Name:      "target_duration_seconds",
		Help:      "Duration of individual target synchronizations",
		Buckets:   prom.DefBuckets,
	}, []string{"target"})
	pr.syncDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "metasync",
		Name:      "sync_duration_seconds",
		Help:      "Total sync duration",
		Buckets:   prom.DefBuckets,
	})
	pr.targetResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "metasync",
		Name:      "target_results_total",
		Help:      "Target results by outcome",
	}, []string{"target", "result"})
	pr.linesChanged = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "metasync",
		Name:      "lines_changed_total",
		Help:      "Lines whose content differs after synchronization",
	}, []string{"target"})
	reg.MustRegister(pr.targetDuration, pr.syncDuration, pr.targetResults, pr.linesChanged)
	return pr
}

// Registry returns the registry the metrics are registered with.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

// WriteTextfile writes the current metric values in the text exposition format,
// atomically replacing filename.
func (p *PrometheusRecorder) WriteTextfile(filename string) error {
	if p == nil {
		return nil
	}
	return prom.WriteToTextfile(filename, p.registry)
}

func (p *PrometheusRecorder) ObserveTargetDuration(target string, d time.Duration) {
	if p == nil || p.targetDuration == nil {
		return
	}
	p.targetDuration.WithLabelValues(target).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveSyncDuration(d time.Duration) {
	if p == nil || p.syncDuration == nil {
		return
	}
	p.syncDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTargetResult(target string, result ResultLabel) {
	if p == nil || p.targetResults == nil {
		return
	}
	p.targetResults.WithLabelValues(target, string(result)).Inc()
}

func (p *PrometheusRecorder) AddLinesChanged(target string, n int) {
	if p == nil || p.linesChanged == nil || n <= 0 {
		return
	}
	p.linesChanged.WithLabelValues(target).Add(float64(n))
}

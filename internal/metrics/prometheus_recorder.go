package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	renderDuration *prom.HistogramVec
	renderResults  *prom.CounterVec
	buildDuration  prom.Histogram
	buildOutcome   *prom.CounterVec
	pagesBuilt     prom.Gauge
	extensions     *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.renderDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "pagebuilder",
			Name:      "render_duration_seconds",
			Help:      "Duration of template render calls",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"})
		pr.renderResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pagebuilder",
			Name:      "render_results_total",
			Help:      "Render call counts by outcome",
		}, []string{"kind", "result"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "pagebuilder",
			Name:      "build_duration_seconds",
			Help:      "Total site build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pagebuilder",
			Name:      "build_outcomes_total",
			Help:      "Site build outcomes",
		}, []string{"outcome"})
		pr.pagesBuilt = prom.NewGauge(prom.GaugeOpts{
			Namespace: "pagebuilder",
			Name:      "pages_built",
			Help:      "Pages written by the last build",
		})
		pr.extensions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pagebuilder",
			Name:      "template_extensions_total",
			Help:      "Template extensions registered by kind",
		}, []string{"kind"})
		reg.MustRegister(pr.renderDuration, pr.renderResults, pr.buildDuration, pr.buildOutcome, pr.pagesBuilt, pr.extensions)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveRenderDuration(kind RenderKind, d time.Duration) {
	if p == nil || p.renderDuration == nil {
		return
	}
	p.renderDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRenderResult(kind RenderKind, result ResultLabel) {
	if p == nil || p.renderResults == nil {
		return
	}
	p.renderResults.WithLabelValues(string(kind), string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome ResultLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetPagesBuilt(n int) {
	if p == nil || p.pagesBuilt == nil {
		return
	}
	p.pagesBuilt.Set(float64(n))
}

func (p *PrometheusRecorder) AddExtensions(kind string, n int) {
	if p == nil || p.extensions == nil || n <= 0 {
		return
	}
	p.extensions.WithLabelValues(kind).Add(float64(n))
}

package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "blogbuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration  *prom.HistogramVec
	buildDuration  prom.Histogram
	stageResults   *prom.CounterVec
	buildOutcome   *prom.CounterVec
	posts          *prom.GaugeVec
	pageRenders    *prom.CounterVec
	rebuildTrigger *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a fresh private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: Namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: Namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		posts: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: Namespace,
			Name:      "posts",
			Help:      "Posts in the last build by parse result",
		}, []string{"result"}),
		pageRenders: prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "page_renders_total",
			Help:      "Rendered pages by template and result",
		}, []string{"template", "result"}),
		rebuildTrigger: prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "rebuild_triggers_total",
			Help:      "Watch-mode rebuild triggers, split by whether they were queued behind a running build",
		}, []string{"queued"}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome, pr.posts, pr.pageRenders, pr.rebuildTrigger)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetPostCounts(parsed, failed int) {
	if p == nil || p.posts == nil {
		return
	}
	p.posts.WithLabelValues("parsed").Set(float64(parsed))
	p.posts.WithLabelValues("failed").Set(float64(failed))
}

func (p *PrometheusRecorder) IncPageRender(template string, success bool) {
	if p == nil || p.pageRenders == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.pageRenders.WithLabelValues(template, res).Inc()
}

func (p *PrometheusRecorder) IncRebuildTrigger(queued bool) {
	if p == nil || p.rebuildTrigger == nil {
		return
	}
	label := "false"
	if queued {
		label = "true"
	}
	p.rebuildTrigger.WithLabelValues(label).Inc()
}

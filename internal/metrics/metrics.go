// Package metrics exposes Prometheus metrics for the tournament bot.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Option configures a Recorder.
type Option func(*Recorder)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom buckets for latency histograms.
func WithHistogramBuckets(buckets []float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.buckets = buckets
		}
	}
}

// WithRegistry sets the registry metrics are registered on and served from.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(r *Recorder) {
		if registry != nil {
			r.registry = registry
		}
	}
}

// Recorder holds every metric the bot reports. A nil *Recorder is a no-op.
type Recorder struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	sessionsStarted   *prometheus.CounterVec
	sessionsEnded     *prometheus.CounterVec
	sessionsActive    prometheus.Gauge
	interactionErrors *prometheus.CounterVec
	upstreamDuration  *prometheus.HistogramVec
	battleLogFetches  *prometheus.CounterVec
	matchesResolved   prometheus.Counter
	renderDuration    *prometheus.HistogramVec
}

// New creates a Recorder on its own registry unless one is supplied.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: "fftournament",
		buckets:   prometheus.DefBuckets,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}

	auto := promauto.With(r.registry)
	r.sessionsStarted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "sessions_started_total",
		Help:      "Sessions started, by command kind",
	}, []string{"kind"})
	r.sessionsEnded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "sessions_ended_total",
		Help:      "Sessions ended, by command kind and outcome",
	}, []string{"kind", "outcome"})
	r.sessionsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      "sessions_active",
		Help:      "Sessions currently listening for interactions",
	})
	r.interactionErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "interaction_errors_total",
		Help:      "Interaction handler failures, by event",
	}, []string{"event"})
	r.upstreamDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of game API requests",
		Buckets:   r.buckets,
	}, []string{"op", "status"})
	r.battleLogFetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "battle_log_fetches_total",
		Help:      "Battle log fetches during bracket updates, by result",
	}, []string{"result"})
	r.matchesResolved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "bracket_matches_resolved_total",
		Help:      "Bracket matches closed by result inference",
	})
	r.renderDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "render_duration_seconds",
		Help:      "Time spent producing a result, by kind and renderer",
		Buckets:   r.buckets,
	}, []string{"kind", "renderer"})

	return r
}

// Handler serves the recorder's registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) SessionStarted(kind string) {
	if r == nil {
		return
	}
	r.sessionsStarted.WithLabelValues(kind).Inc()
	r.sessionsActive.Inc()
}

func (r *Recorder) SessionEnded(kind, outcome string) {
	if r == nil {
		return
	}
	r.sessionsEnded.WithLabelValues(kind, outcome).Inc()
	r.sessionsActive.Dec()
}

func (r *Recorder) InteractionError(event string) {
	if r == nil {
		return
	}
	r.interactionErrors.WithLabelValues(event).Inc()
}

// ObserveUpstream records one game API request.
func (r *Recorder) ObserveUpstream(op, status string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.upstreamDuration.WithLabelValues(op, status).Observe(elapsed.Seconds())
}

func (r *Recorder) BattleLogFetch(ok bool) {
	if r == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	r.battleLogFetches.WithLabelValues(result).Inc()
}

func (r *Recorder) MatchesResolved(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.matchesResolved.Add(float64(n))
}

func (r *Recorder) ObserveRender(kind, renderer string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.renderDuration.WithLabelValues(kind, renderer).Observe(elapsed.Seconds())
}

package metrics

import (
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kochabx/stepviz/session"
)

var _ session.Observer = (*Prometheus)(nil)

type Prometheus struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	recomputes      *prometheus.CounterVec
	computeDuration *prometheus.HistogramVec
}

func New() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "recomputes_total",
			Help:      "Recomputes by outcome: computed, cached, rejected or engine_failed.",
		}, []string{"kind", "mode", "outcome"}),
		computeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "compute_duration_seconds",
			Help:      "Time to obtain intermediate values, cache hits included.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"kind", "mode"}),
	}
	p.registry.MustRegister(p.requests, p.requestDuration, p.recomputes, p.computeDuration)
	return p
}

func (p *Prometheus) WithGoCollectorRuntimeMetrics() {
	p.registry.MustRegister(collectors.NewGoCollector(
		collectors.WithGoCollectorRuntimeMetrics(collectors.GoRuntimeMetricsRule{Matcher: regexp.MustCompile("/.*")}),
	))
}

func (p *Prometheus) WithBuildInfoCollector() {
	p.registry.MustRegister(collectors.NewBuildInfoCollector())
}

// WithSessionGauge reports the live session count through fn.
func (p *Prometheus) WithSessionGauge(fn func() int) {
	p.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "active",
		Help:      "Live sessions in the registry.",
	}, func() float64 { return float64(fn()) }))
}

func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Middleware records every request under its route template.
func (p *Prometheus) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		p.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		p.requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (p *Prometheus) Computed(kind session.Kind, mode string, elapsed time.Duration, cached bool) {
	outcome := "computed"
	if cached {
		outcome = "cached"
	}
	p.recomputes.WithLabelValues(string(kind), mode, outcome).Inc()
	p.computeDuration.WithLabelValues(string(kind), mode).Observe(elapsed.Seconds())
}

func (p *Prometheus) Rejected(kind session.Kind, mode string, _ []string) {
	p.recomputes.WithLabelValues(string(kind), mode, "rejected").Inc()
}

func (p *Prometheus) EngineFailed(kind session.Kind, mode string, _ error) {
	p.recomputes.WithLabelValues(string(kind), mode, "engine_failed").Inc()
}

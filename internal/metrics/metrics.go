// Package metrics exposes Prometheus counters for the payroll API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds a private Prometheus registry and the payroll collectors.
// A nil *Registry is valid and records nothing.
type Registry struct {
	reg *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Errors          *prometheus.CounterVec
	Recomputes      prometheus.Counter
	RecomputeSec    prometheus.Histogram
	LinesWritten    prometheus.Counter
	PayoutDrafts    prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "payroll",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "payroll",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
	errs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "payroll",
		Name:      "errors_total",
		Help:      "Error responses by kind.",
	}, []string{"kind"})
	recomputes := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "payroll",
		Name:      "period_recomputes_total",
		Help:      "Completed period recomputes.",
	})
	recomputeSec := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "payroll",
		Name:      "period_recompute_seconds",
		Help:      "Period recompute latency.",
		Buckets:   prometheus.DefBuckets,
	})
	lines := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "payroll",
		Name:      "period_lines_written_total",
		Help:      "Period lines materialized by recomputes.",
	})
	drafts := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "payroll",
		Name:      "payout_drafts_total",
		Help:      "Payout drafts prepared.",
	})

	r.MustRegister(requests, duration, errs, recomputes, recomputeSec, lines, drafts)
	return &Registry{
		reg:             r,
		Requests:        requests,
		RequestDuration: duration,
		Errors:          errs,
		Recomputes:      recomputes,
		RecomputeSec:    recomputeSec,
		LinesWritten:    lines,
		PayoutDrafts:    drafts,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveRequest records one served request.
func (r *Registry) ObserveRequest(route string, code int, d time.Duration) {
	if r == nil {
		return
	}
	r.Requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	r.RequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveError counts an error response of the given kind.
func (r *Registry) ObserveError(kind string) {
	if r == nil {
		return
	}
	r.Errors.WithLabelValues(kind).Inc()
}

// ObserveRecompute records a completed recompute.
func (r *Registry) ObserveRecompute(lines int, d time.Duration) {
	if r == nil {
		return
	}
	r.Recomputes.Inc()
	r.RecomputeSec.Observe(d.Seconds())
	r.LinesWritten.Add(float64(lines))
}

// ObservePayoutDraft counts a prepared payout draft.
func (r *Registry) ObservePayoutDraft() {
	if r == nil {
		return
	}
	r.PayoutDrafts.Inc()
}

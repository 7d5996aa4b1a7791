// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the certificate collectors. A nil *Metrics is a no-op.
type Metrics struct {
	Issued        *prometheus.CounterVec
	IssueFailures *prometheus.CounterVec
	FontFallbacks prometheus.Counter
	Verifications *prometheus.CounterVec
	StoreErrors   *prometheus.CounterVec
	RenderSeconds prometheus.Histogram
}

// New creates the collectors and registers them on reg when it is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Issued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "certificates",
			Name:      "issued_total",
			Help:      "Certificates issued, by render mode.",
		}, []string{"mode"}),
		IssueFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "certificates",
			Name:      "issue_failures_total",
			Help:      "Issuance attempts that did not produce a document, by error kind.",
		}, []string{"kind"}),
		FontFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "certificates",
			Name:      "font_fallbacks_total",
			Help:      "Template renders that used the built-in font.",
		}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "certificates",
			Name:      "verifications_total",
			Help:      "Verification lookups, by result.",
		}, []string{"result"}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "certificates",
			Name:      "store_errors_total",
			Help:      "Certificate store failures, by operation.",
		}, []string{"op"}),
		RenderSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "certificates",
			Name:      "render_seconds",
			Help:      "Time spent rendering certificate PDFs.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Issued, m.IssueFailures, m.FontFallbacks, m.Verifications, m.StoreErrors, m.RenderSeconds)
	}
	return m
}

func (m *Metrics) IssuedWith(mode string, fontFallback bool) {
	if m == nil {
		return
	}
	m.Issued.WithLabelValues(mode).Inc()
	if fontFallback && mode == "template" {
		m.FontFallbacks.Inc()
	}
}

func (m *Metrics) IssueFailed(kind string) {
	if m == nil {
		return
	}
	m.IssueFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) Verified(result string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(result).Inc()
}

func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.RenderSeconds.Observe(d.Seconds())
}

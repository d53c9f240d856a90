package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records gateway verification and payment application outcomes.
type PaymentMetrics struct {
	verifyDuration *prometheus.HistogramVec
	verifyOutcome  *prometheus.CounterVec
	applied        *prometheus.CounterVec
	duplicates     prometheus.Counter
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	verifyDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_verify_duration_seconds",
		Help:    "Duration of gateway verification calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	verifyOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_verify_total",
		Help: "Gateway verification calls by outcome.",
	}, []string{"outcome"})
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_applied_total",
		Help: "Payments applied to accounts by purpose.",
	}, []string{"purpose"})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_duplicate_apply_total",
		Help: "Payment applications skipped because the payment was already applied.",
	})
	reg.MustRegister(verifyDuration, verifyOutcome, applied, duplicates)
	return &PaymentMetrics{
		verifyDuration: verifyDuration,
		verifyOutcome:  verifyOutcome,
		applied:        applied,
		duplicates:     duplicates,
	}
}

// ObserveVerify records one gateway verification call with its outcome and latency.
func (p *PaymentMetrics) ObserveVerify(outcome string, duration time.Duration) {
	if p == nil || p.verifyDuration == nil {
		return
	}
	label := normalizeLabel(outcome)
	p.verifyDuration.WithLabelValues(label).Observe(duration.Seconds())
	p.verifyOutcome.WithLabelValues(label).Inc()
}

// IncApplied increments the applied counter for the given payment purpose.
func (p *PaymentMetrics) IncApplied(purpose string) {
	if p == nil || p.applied == nil {
		return
	}
	p.applied.WithLabelValues(normalizeLabel(purpose)).Inc()
}

// IncDuplicate increments the duplicate-application counter.
func (p *PaymentMetrics) IncDuplicate() {
	if p == nil || p.duplicates == nil {
		return
	}
	p.duplicates.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

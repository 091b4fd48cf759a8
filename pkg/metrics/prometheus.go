package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/domain/repository"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	vendorTotal  *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

var _ repository.Metrics = (*Recorder)(nil)

// New creates a recorder registered on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		signalsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_signals_total",
				Help: "Total number of classified signals",
			},
			[]string{"symbol", "status", "persisted"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		vendorTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_vendor_requests_total",
				Help: "Market data tier outcomes",
			},
			[]string{"vendor", "result"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finsignal_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finsignal_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSignal records one classified signal.
func (r *Recorder) RecordSignal(symbol string, status models.Status, persisted bool) {
	p := "false"
	if persisted {
		p = "true"
	}
	r.signalsTotal.WithLabelValues(symbol, string(status), p).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordVendor records a tier outcome (ok, empty, error, limited).
func (r *Recorder) RecordVendor(vendor, result string) {
	r.vendorTotal.WithLabelValues(vendor, result).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards all observations.
type Nop struct{}

var _ repository.Metrics = Nop{}

func (Nop) RecordSignal(string, models.Status, bool) {}
func (Nop) RecordError(string)                       {}
func (Nop) RecordVendor(string, string)              {}
func (Nop) RecordLastPrice(string, float64)          {}
func (Nop) RecordLatency(string, float64)            {}

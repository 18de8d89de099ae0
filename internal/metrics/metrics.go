// Package metrics counts install attempts in a Prometheus registry and
// writes them in the node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/NielsdaWheelz/envsetup/internal/report"
)

const (
	MetricsNamespace = "envsetup"
)

// Sink is a report.Reporter that records attempt metrics.
type Sink struct {
	Registry *prometheus.Registry

	attempts *prometheus.CounterVec
	records  *prometheus.CounterVec
	elapsed  *prometheus.GaugeVec
	success  prometheus.Gauge
}

// NewSink creates a Sink backed by a fresh registry.
func NewSink() *Sink {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Sink{
		Registry: reg,
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "install_attempts_total",
			Help:      "Count of install attempts by step and disposition",
		}, []string{
			"step",
			"result",
		}),
		records: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "records_total",
			Help:      "Count of reported records by severity",
		}, []string{
			"severity",
		}),
		elapsed: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "retry_elapsed_seconds",
			Help:      "Retry sleep spent per step",
		}, []string{
			"step",
		}),
		success: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "install_success",
			Help:      "1 if the last installation succeeded, 0 otherwise",
		}),
	}
}

// Section implements report.Reporter.
func (s *Sink) Section(string) {}

// Entry implements report.Reporter.
func (s *Sink) Entry(r report.Record) {
	s.records.WithLabelValues(string(r.Severity)).Inc()
	if r.Step == "" || r.Disposition == report.Skip {
		return
	}
	s.attempts.WithLabelValues(r.Step, string(r.Disposition)).Inc()
}

// SetRetryElapsed records the retry sleep actually waited for step. A sleep
// cut short by an interrupt is not counted.
func (s *Sink) SetRetryElapsed(step string, d time.Duration) {
	s.elapsed.WithLabelValues(step).Set(d.Seconds())
}

// SetSuccess records the overall result.
func (s *Sink) SetSuccess(ok bool) {
	if ok {
		s.success.Set(1)
		return
	}
	s.success.Set(0)
}

// WriteTextfile writes every metric to path atomically.
func (s *Sink) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, s.Registry)
}

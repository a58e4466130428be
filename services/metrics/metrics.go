// Package metrics exposes SPS30 readings as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sps30-go/drivers/sps30"
	"sps30-go/errcode"
)

// NewRegistry returns a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// SensorMetrics records measurements and failures of one sensor.
type SensorMetrics struct {
	Value      *prometheus.GaugeVec   // labels: channel
	Raw        *prometheus.GaugeVec   // labels: channel; UInt16 mode only
	Reads      prometheus.Counter     // successful measurement reads
	Errors     *prometheus.CounterVec // labels: code
	Status     *prometheus.GaugeVec   // labels: flag (1 = set)
	LastReadTS prometheus.Gauge       // unix seconds of the last measurement
}

// NewSensorMetrics registers the sensor metrics on reg.
func NewSensorMetrics(reg prometheus.Registerer) *SensorMetrics {
	m := &SensorMetrics{
		Value: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sps30_value",
			Help: "Last measured value per channel (mass µg/m³, count #/cm³, typical size µm or nm).",
		}, []string{"channel"}),
		Raw: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sps30_raw",
			Help: "Last undivided UInt16 word per channel, before the fixed-point divisor.",
		}, []string{"channel"}),
		Reads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sps30_reads_total",
			Help: "Successful measurement reads.",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sps30_errors_total",
			Help: "Failed transactions by error code.",
		}, []string{"code"}),
		Status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sps30_status_flag",
			Help: "Device status register flags (1 = set).",
		}, []string{"flag"}),
		LastReadTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sps30_last_read_timestamp_seconds",
			Help: "Unix time of the last successful measurement read.",
		}),
	}
	reg.MustRegister(m.Value, m.Raw, m.Reads, m.Errors, m.Status, m.LastReadTS)
	for _, c := range errcode.All {
		if c != errcode.OK {
			m.Errors.WithLabelValues(string(c))
		}
	}
	return m
}

// Publish records one measurement set taken at unix time ts. In UInt16
// mode the raw words are exported too, since sps30_value carries them
// divided by sps30.UInt16Divisor.
func (m *SensorMetrics) Publish(set sps30.MeasurementSet, ts float64) {
	for _, ch := range sps30.Channels() {
		m.Value.WithLabelValues(ch.String()).Set(float64(set.Get(ch)))
		if set.Width == sps30.UInt16 {
			m.Raw.WithLabelValues(ch.String()).Set(float64(set.Raw[ch]))
		}
	}
	m.Reads.Inc()
	m.LastReadTS.Set(ts)
}

// Fail counts one failed transaction.
func (m *SensorMetrics) Fail(code errcode.Code) {
	m.Errors.WithLabelValues(string(code)).Inc()
}

// SetStatus records the status register flags.
func (m *SensorMetrics) SetStatus(s sps30.StatusFlags) {
	for name, set := range s.Map() {
		v := 0.0
		if set {
			v = 1
		}
		m.Status.WithLabelValues(name).Set(v)
	}
}

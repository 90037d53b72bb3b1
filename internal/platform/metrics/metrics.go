// Package metrics holds the Prometheus collectors for the registry and the
// HTTP server. A nil *Registry is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeEmpty    = "empty"
)

type Registry struct {
	gatherer prometheus.Gatherer

	operations          *prometheus.CounterVec
	patientsRegistered  prometheus.Counter
	doctorsRegistered   prometheus.Counter
	emergencyQueueDepth prometheus.Gauge
	admittedPatients    prometheus.Gauge

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInFlight        prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg *prometheus.Registry) *Registry {
	m := &Registry{
		gatherer: reg,
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hospital_operations_total",
				Help: "Total number of registry operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		patientsRegistered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hospital_patients_registered_total",
				Help: "Total number of patients registered",
			},
		),
		doctorsRegistered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hospital_doctors_registered_total",
				Help: "Total number of doctors added",
			},
		),
		emergencyQueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hospital_emergency_queue_depth",
				Help: "Number of patients waiting in the emergency queue",
			},
		),
		admittedPatients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hospital_admitted_patients",
				Help: "Number of patients currently admitted",
			},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
	}
	reg.MustRegister(
		m.operations,
		m.patientsRegistered,
		m.doctorsRegistered,
		m.emergencyQueueDepth,
		m.admittedPatients,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpInFlight,
	)
	return m
}

func (m *Registry) ObserveOperation(op, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

func (m *Registry) PatientRegistered() {
	if m == nil {
		return
	}
	m.patientsRegistered.Inc()
}

func (m *Registry) DoctorRegistered() {
	if m == nil {
		return
	}
	m.doctorsRegistered.Inc()
}

func (m *Registry) SetEmergencyQueueDepth(n int) {
	if m == nil {
		return
	}
	m.emergencyQueueDepth.Set(float64(n))
}

func (m *Registry) SetAdmittedPatients(n int) {
	if m == nil {
		return
	}
	m.admittedPatients.Set(float64(n))
}

// TrackInFlight increments the in-flight gauge and returns a func that
// decrements it.
func (m *Registry) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.httpInFlight.Inc()
	return m.httpInFlight.Dec
}

// ObserveHTTP records a finished request. path should be the route pattern,
// not the raw URL, to keep label cardinality bounded.
func (m *Registry) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// Handler serves the exposition format for everything registered on the
// underlying registry.
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

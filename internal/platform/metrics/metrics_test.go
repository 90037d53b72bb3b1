package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilRegistryIsNoop(t *testing.T) {
	var m *Registry
	m.ObserveOperation("admit_patient", OutcomeOK)
	m.PatientRegistered()
	m.DoctorRegistered()
	m.SetEmergencyQueueDepth(3)
	m.SetAdmittedPatients(1)
	m.ObserveHTTP(http.MethodGet, "/health", 200, time.Millisecond)
	m.TrackInFlight()()
}

func TestRegistry_Operations(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveOperation("handle_emergency", OutcomeEmpty)
	m.ObserveOperation("handle_emergency", OutcomeEmpty)
	m.ObserveOperation("handle_emergency", OutcomeOK)

	if got := testutil.ToFloat64(m.operations.WithLabelValues("handle_emergency", OutcomeEmpty)); got != 2 {
		t.Errorf("expected 2 empty outcomes, got %v", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("handle_emergency", OutcomeOK)); got != 1 {
		t.Errorf("expected 1 ok outcome, got %v", got)
	}
}

func TestRegistry_Gauges(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SetEmergencyQueueDepth(4)
	m.SetAdmittedPatients(2)
	m.SetAdmittedPatients(1)

	if got := testutil.ToFloat64(m.emergencyQueueDepth); got != 4 {
		t.Errorf("queue depth = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.admittedPatients); got != 1 {
		t.Errorf("admitted = %v, want 1", got)
	}
}

func TestRegistry_TrackInFlight(t *testing.T) {
	m := New(prometheus.NewRegistry())
	done := m.TrackInFlight()
	if got := testutil.ToFloat64(m.httpInFlight); got != 1 {
		t.Fatalf("in flight = %v, want 1", got)
	}
	done()
	if got := testutil.ToFloat64(m.httpInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
}

func TestRegistry_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic registering collectors twice")
		}
	}()
	New(reg)
}

func TestRegistry_Handler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.PatientRegistered()
	m.ObserveHTTP(http.MethodPost, "/api/v1/patients", http.StatusCreated, 5*time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		"hospital_patients_registered_total 1",
		`http_requests_total{method="POST",path="/api/v1/patients",status="201"} 1`,
		"http_request_duration_seconds_bucket",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

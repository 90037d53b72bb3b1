package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ehr/hospital/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:             "8000",
		Env:              "development",
		LogLevel:         "info",
		CORSOrigins:      []string{"http://localhost:3000"},
		RateLimitRPS:     100,
		RateLimitBurst:   200,
		MetricsEnabled:   true,
		WebSocketEnabled: true,
	}
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewServer_Health(t *testing.T) {
	e, _ := newServer(testConfig(), zerolog.Nop())

	rec := serve(t, e, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "ok" || body["version"] != buildVersion() {
		t.Errorf("unexpected health body %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers")
	}
}

func TestNewServer_RegistryRoutesAndMetrics(t *testing.T) {
	e, reg := newServer(testConfig(), zerolog.Nop())

	rec := serve(t, e, http.MethodPost, "/api/v1/patients", `{"name":"John Doe","age":35}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if s := reg.Stats(context.Background()); s.Patients != 1 {
		t.Errorf("expected one patient, got %+v", s)
	}

	rec = serve(t, e, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
	for _, want := range []string{
		"hospital_patients_registered_total 1",
		`http_requests_total{method="POST",path="/api/v1/patients",status="201"} 1`,
	} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestNewServer_OptionalSurfaces(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsEnabled = false
	cfg.WebSocketEnabled = false
	e, _ := newServer(cfg, zerolog.Nop())

	if rec := serve(t, e, http.MethodGet, "/metrics", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for disabled metrics, got %d", rec.Code)
	}
	if rec := serve(t, e, http.MethodGet, "/ws", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for disabled websocket, got %d", rec.Code)
	}
	if rec := serve(t, e, http.MethodPost, "/api/v1/emergencies/next", ""); rec.Code != http.StatusConflict {
		t.Errorf("expected 409 on empty emergency queue, got %d", rec.Code)
	}
}

func TestNewServer_ReportGoesToLogger(t *testing.T) {
	var buf bytes.Buffer
	e, _ := newServer(testConfig(), zerolog.New(&buf))

	serve(t, e, http.MethodPost, "/api/v1/doctors", `{"name":"Dr. Smith","department":"cardiology"}`)

	if !strings.Contains(buf.String(), "Doctor added successfully with ID: 1") {
		t.Errorf("report line not logged: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"component":"report"`) {
		t.Errorf("report line missing component field: %s", buf.String())
	}
}

func TestVersionCmd(t *testing.T) {
	cmd := versionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)
	if !strings.HasPrefix(out.String(), buildVersion()+" (revision ") {
		t.Errorf("version output = %q, want prefix %q", out.String(), buildVersion())
	}
}

func TestBuildVersion_LdflagsOverride(t *testing.T) {
	old := version
	defer func() { version = old }()

	version = "v1.2.3"
	if got := buildVersion(); got != "v1.2.3" {
		t.Errorf("buildVersion() = %q, want v1.2.3", got)
	}
	version = ""
	if buildVersion() == "" {
		t.Error("expected a version from build info")
	}
}

func TestLoadConfig_PortOverride(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "8000")

	cfg, err := loadConfig("9191")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9191" {
		t.Errorf("expected port override 9191, got %s", cfg.Port)
	}
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	t.Setenv("ENV", "qa")

	if _, err := loadConfig(""); err == nil {
		t.Fatal("expected error for unknown ENV")
	}
	if err := runServer(""); err == nil {
		t.Fatal("expected runServer to return the config error instead of exiting")
	}
}

func TestLoadConfig_RejectsBadPortOverride(t *testing.T) {
	t.Setenv("ENV", "development")

	if _, err := loadConfig("not-a-port"); err == nil {
		t.Fatal("expected error for invalid --port")
	}
}

func TestNewServer_ZeroBurstIsRejectedBeforeServing(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("RATE_LIMIT_RPS", "50")
	t.Setenv("RATE_LIMIT_BURST", "0")

	if _, err := loadConfig(""); err == nil {
		t.Fatal("expected zero burst to be rejected")
	}

	e, _ := newServer(testConfig(), zerolog.Nop())
	if rec := serve(t, e, http.MethodGet, "/api/v1/stats", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200 with default limits, got %d", rec.Code)
	}
}

func TestServeCmd_PortFlag(t *testing.T) {
	cmd := serveCmd()
	if err := cmd.Flags().Set("port", "9999"); err != nil {
		t.Fatalf("set port flag: %v", err)
	}
	if got, _ := cmd.Flags().GetString("port"); got != "9999" {
		t.Errorf("port flag = %q", got)
	}
}

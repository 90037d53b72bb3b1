package hospital

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestHandler() (*Handler, *echo.Echo) {
	h := NewHandler(NewRegistry(zerolog.Nop()))
	e := echo.New()
	return h, e
}

func newJSONContext(e *echo.Echo, method, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/", nil)
	} else {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func expectHTTPError(t *testing.T, err error, status int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != status {
		t.Errorf("expected %d, got %d (%v)", status, he.Code, he.Message)
	}
}

func TestHandler_RegisterPatient(t *testing.T) {
	h, e := newTestHandler()
	c, rec := newJSONContext(e, http.MethodPost, `{"name":"John Doe","age":35,"contact":"555-1234"}`)

	if err := h.RegisterPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var resp idResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.ID != 1 {
		t.Errorf("expected id 1, got %d", resp.ID)
	}
}

func TestHandler_RegisterPatient_BadRequest(t *testing.T) {
	h, e := newTestHandler()
	for _, body := range []string{`{"age":35}`, `{"name":"X","age":-1}`, `{"name":`} {
		c, _ := newJSONContext(e, http.MethodPost, body)
		expectHTTPError(t, h.RegisterPatient(c), http.StatusBadRequest)
	}
}

func TestHandler_GetPatient(t *testing.T) {
	h, e := newTestHandler()
	id := h.reg.RegisterPatient(context.Background(), "Jane", 28, "")
	h.reg.AdmitPatient(context.Background(), id, ICU)

	c, rec := newJSONContext(e, http.MethodGet, "")
	if err := h.GetPatient(withID(c, "1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var p PatientSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Name != "Jane" || !p.Admitted || p.RoomType != ICU {
		t.Errorf("unexpected patient %+v", p)
	}
	if !strings.Contains(rec.Body.String(), `"room_type":"icu"`) {
		t.Errorf("expected wire room type key in %s", rec.Body.String())
	}
}

func TestHandler_GetPatient_NotFound(t *testing.T) {
	h, e := newTestHandler()
	c, _ := newJSONContext(e, http.MethodGet, "")
	expectHTTPError(t, h.GetPatient(withID(c, "99")), http.StatusNotFound)

	c, _ = newJSONContext(e, http.MethodGet, "")
	expectHTTPError(t, h.GetPatient(withID(c, "abc")), http.StatusBadRequest)
}

func TestHandler_AdmitAndDischarge(t *testing.T) {
	h, e := newTestHandler()
	h.reg.RegisterPatient(context.Background(), "John", 35, "")

	c, rec := newJSONContext(e, http.MethodPost, `{"room_type":"Private Room"}`)
	if err := h.AdmitPatient(withID(c, "1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var p PatientSnapshot
	json.Unmarshal(rec.Body.Bytes(), &p)
	if !p.Admitted || p.RoomType != PrivateRoom {
		t.Errorf("unexpected admit response %+v", p)
	}

	c, _ = newJSONContext(e, http.MethodPost, `{"room_type":"attic"}`)
	expectHTTPError(t, h.AdmitPatient(withID(c, "1")), http.StatusBadRequest)

	c, rec = newJSONContext(e, http.MethodPost, "")
	if err := h.DischargePatient(withID(c, "1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p = PatientSnapshot{}
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.Admitted {
		t.Error("expected patient to be discharged")
	}

	c, _ = newJSONContext(e, http.MethodPost, "")
	expectHTTPError(t, h.DischargePatient(withID(c, "2")), http.StatusNotFound)
}

func TestHandler_RecordsAndHistory(t *testing.T) {
	h, e := newTestHandler()
	h.reg.RegisterPatient(context.Background(), "John", 35, "")

	for _, text := range []string{"first", "second"} {
		c, rec := newJSONContext(e, http.MethodPost, `{"text":"`+text+`"}`)
		if err := h.AddMedicalRecord(withID(c, "1")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusCreated {
			t.Errorf("expected 201, got %d", rec.Code)
		}
	}

	c, _ := newJSONContext(e, http.MethodPost, `{"text":""}`)
	expectHTTPError(t, h.AddMedicalRecord(withID(c, "1")), http.StatusBadRequest)

	req := httptest.NewRequest(http.MethodGet, "/?order=chronological", nil)
	rec := httptest.NewRecorder()
	c = withID(e.NewContext(req, rec), "1")
	if err := h.GetHistory(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		History []string `json:"history"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.History) != 2 || resp.History[0] != "first" {
		t.Errorf("unexpected chronological history %v", resp.History)
	}

	req = httptest.NewRequest(http.MethodGet, "/?order=sideways", nil)
	c = withID(e.NewContext(req, httptest.NewRecorder()), "1")
	expectHTTPError(t, h.GetHistory(c), http.StatusBadRequest)
}

func TestHandler_Tests(t *testing.T) {
	h, e := newTestHandler()
	h.reg.RegisterPatient(context.Background(), "John", 35, "")

	c, _ := newJSONContext(e, http.MethodPost, `{"name":"MRI"}`)
	if err := h.RequestTest(withID(c, "1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, rec := newJSONContext(e, http.MethodPost, "")
	if err := h.PerformTest(withID(c, "1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"test":"MRI"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	c, _ = newJSONContext(e, http.MethodPost, "")
	expectHTTPError(t, h.PerformTest(withID(c, "1")), http.StatusConflict)
}

func TestHandler_PatientReport(t *testing.T) {
	h, e := newTestHandler()
	h.reg.RegisterPatient(context.Background(), "John Doe", 35, "")

	c, rec := newJSONContext(e, http.MethodGet, "")
	if err := h.GetPatientReport(withID(c, "1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMETextPlain) {
		t.Errorf("expected text/plain, got %s", rec.Header().Get(echo.HeaderContentType))
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Admission Status: Not Admitted") || !strings.Contains(body, "No medical history available.") {
		t.Errorf("unexpected report %q", body)
	}
}

func TestHandler_Doctors(t *testing.T) {
	h, e := newTestHandler()

	c, rec := newJSONContext(e, http.MethodPost, `{"name":"Dr. Smith","department":"cardiology"}`)
	if err := h.AddDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	c, _ = newJSONContext(e, http.MethodPost, `{"name":"Dr. Who","department":"time travel"}`)
	expectHTTPError(t, h.AddDoctor(c), http.StatusBadRequest)

	c, rec = newJSONContext(e, http.MethodGet, "")
	if err := h.GetDoctor(withID(c, "1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"department":"cardiology"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	c, rec = newJSONContext(e, http.MethodGet, "")
	if err := h.GetDoctorReport(withID(c, "1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "Department: Cardiology") {
		t.Errorf("unexpected report %q", rec.Body.String())
	}
}

func TestHandler_Appointments(t *testing.T) {
	h, e := newTestHandler()
	ctx := context.Background()
	h.reg.AddDoctor(ctx, "Dr. Smith", Cardiology)
	h.reg.RegisterPatient(ctx, "John", 35, "")

	c, _ := newJSONContext(e, http.MethodPost, `{}`)
	expectHTTPError(t, h.BookAppointment(withID(c, "1")), http.StatusBadRequest)

	c, _ = newJSONContext(e, http.MethodPost, `{"patient_id":1}`)
	expectHTTPError(t, h.BookAppointment(withID(c, "999")), http.StatusNotFound)

	c, rec := newJSONContext(e, http.MethodPost, `{"patient_id":1}`)
	if err := h.BookAppointment(withID(c, "1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	c, rec = newJSONContext(e, http.MethodGet, "")
	if err := h.ListAppointments(withID(c, "1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"appointments":[1]`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	c, rec = newJSONContext(e, http.MethodPost, "")
	if err := h.SeePatient(withID(c, "1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var seen patientIDResponse
	json.Unmarshal(rec.Body.Bytes(), &seen)
	if seen.PatientID != 1 {
		t.Errorf("expected patient 1, got %d", seen.PatientID)
	}

	c, _ = newJSONContext(e, http.MethodPost, "")
	expectHTTPError(t, h.SeePatient(withID(c, "1")), http.StatusConflict)
}

func TestHandler_Emergencies(t *testing.T) {
	h, e := newTestHandler()
	h.reg.RegisterPatient(context.Background(), "A", 1, "")
	h.reg.RegisterPatient(context.Background(), "B", 2, "")

	c, _ := newJSONContext(e, http.MethodPost, "")
	expectHTTPError(t, h.HandleEmergency(c), http.StatusConflict)

	for _, body := range []string{`{"patient_id":2}`, `{"patient_id":1}`} {
		c, rec := newJSONContext(e, http.MethodPost, body)
		if err := h.AddEmergency(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusCreated {
			t.Errorf("expected 201, got %d", rec.Code)
		}
	}

	c, _ = newJSONContext(e, http.MethodPost, `{"patient_id":50}`)
	expectHTTPError(t, h.AddEmergency(c), http.StatusNotFound)

	c, rec := newJSONContext(e, http.MethodGet, "")
	h.ListEmergencies(c)
	if !strings.Contains(rec.Body.String(), `"queue":[2,1]`) {
		t.Errorf("unexpected queue %s", rec.Body.String())
	}

	c, rec = newJSONContext(e, http.MethodPost, "")
	if err := h.HandleEmergency(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"patient_id":2`) {
		t.Errorf("expected patient 2 first, got %s", rec.Body.String())
	}
}

func TestHandler_ListPatientsPaginated(t *testing.T) {
	h, e := newTestHandler()
	for i := 0; i < 5; i++ {
		h.reg.RegisterPatient(context.Background(), "P", 20+i, "")
	}

	req := httptest.NewRequest(http.MethodGet, "/?limit=2&offset=2", nil)
	rec := httptest.NewRecorder()
	if err := h.ListPatients(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data    []PatientSnapshot `json:"data"`
		Total   int               `json:"total"`
		HasMore bool              `json:"has_more"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 5 || len(resp.Data) != 2 || resp.Data[0].ID != 3 || !resp.HasMore {
		t.Errorf("unexpected page %+v", resp)
	}
}

func TestHandler_Stats(t *testing.T) {
	h, e := newTestHandler()
	h.reg.RegisterPatient(context.Background(), "A", 1, "")
	h.reg.AddDoctor(context.Background(), "B", General)

	c, rec := newJSONContext(e, http.MethodGet, "")
	if err := h.GetStats(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var s Stats
	json.Unmarshal(rec.Body.Bytes(), &s)
	if s.Patients != 1 || s.Doctors != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, e := newTestHandler()
	h.RegisterRoutes(e.Group("/api/v1"))

	routes := make(map[string]bool)
	for _, r := range e.Routes() {
		routes[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /api/v1/patients",
		"GET /api/v1/patients/:id/history",
		"POST /api/v1/patients/:id/tests/perform",
		"POST /api/v1/doctors/:id/appointments/next",
		"POST /api/v1/emergencies/next",
		"GET /api/v1/stats",
	} {
		if !routes[want] {
			t.Errorf("route %s not registered", want)
		}
	}
}

func TestHandler_EndToEnd(t *testing.T) {
	h, e := newTestHandler()
	h.RegisterRoutes(e.Group("/api/v1"))

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		} else {
			req = httptest.NewRequest(method, path, nil)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	do(http.MethodPost, "/api/v1/patients", `{"name":"John Doe","age":35}`)
	do(http.MethodPost, "/api/v1/doctors", `{"name":"Dr. Smith","department":"Cardiology"}`)

	if rec := do(http.MethodPost, "/api/v1/doctors/1/appointments", `{"patient_id":1}`); rec.Code != http.StatusCreated {
		t.Fatalf("book appointment: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(http.MethodPost, "/api/v1/doctors/999/appointments", `{"patient_id":1}`); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown doctor, got %d", rec.Code)
	}
	if rec := do(http.MethodPost, "/api/v1/emergencies/next", ""); rec.Code != http.StatusConflict {
		t.Errorf("expected 409 on empty emergency queue, got %d", rec.Code)
	}

	rec := do(http.MethodGet, "/api/v1/patients/1/history", "")
	if !strings.Contains(rec.Body.String(), "Appointment booked with Dr. Dr. Smith") {
		t.Errorf("unexpected history %s", rec.Body.String())
	}
}

package hospital

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ehr/hospital/pkg/pagination"
)

type Handler struct {
	reg *Registry
}

func NewHandler(reg *Registry) *Handler {
	return &Handler{reg: reg}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients", h.RegisterPatient)
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/:id", h.GetPatient)
	api.GET("/patients/:id/report", h.GetPatientReport)
	api.GET("/patients/:id/history", h.GetHistory)
	api.POST("/patients/:id/admit", h.AdmitPatient)
	api.POST("/patients/:id/discharge", h.DischargePatient)
	api.POST("/patients/:id/records", h.AddMedicalRecord)
	api.POST("/patients/:id/tests", h.RequestTest)
	api.POST("/patients/:id/tests/perform", h.PerformTest)

	api.POST("/doctors", h.AddDoctor)
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/:id", h.GetDoctor)
	api.GET("/doctors/:id/report", h.GetDoctorReport)
	api.GET("/doctors/:id/appointments", h.ListAppointments)
	api.POST("/doctors/:id/appointments", h.BookAppointment)
	api.POST("/doctors/:id/appointments/next", h.SeePatient)

	api.POST("/emergencies", h.AddEmergency)
	api.GET("/emergencies", h.ListEmergencies)
	api.POST("/emergencies/next", h.HandleEmergency)

	api.GET("/stats", h.GetStats)
}

type registerPatientRequest struct {
	Name    string `json:"name"`
	Age     int    `json:"age"`
	Contact string `json:"contact"`
}

type addDoctorRequest struct {
	Name       string `json:"name"`
	Department string `json:"department"`
}

type admitRequest struct {
	RoomType string `json:"room_type"`
}

type recordRequest struct {
	Text string `json:"text"`
}

type testRequest struct {
	Name string `json:"name"`
}

type patientRefRequest struct {
	PatientID *int `json:"patient_id"`
}

type idResponse struct {
	ID int `json:"id"`
}

type patientIDResponse struct {
	PatientID int `json:"patient_id"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// -- Patient Handlers --

func (h *Handler) RegisterPatient(c echo.Context) error {
	var req registerPatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if req.Age < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "age must not be negative")
	}
	id := h.reg.RegisterPatient(c.Request().Context(), req.Name, req.Age, req.Contact)
	return c.JSON(http.StatusCreated, idResponse{ID: id})
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	items := h.reg.ListPatients(c.Request().Context())
	return c.JSON(http.StatusOK, pagination.Paginate(items, pg))
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	p, err := h.reg.PatientInfo(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPatientReport(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := h.reg.WritePatientInfo(c.Request().Context(), &buf, id); err != nil {
		return httpError(err)
	}
	return c.String(http.StatusOK, buf.String())
}

// GetHistory returns the medical history, most recent first unless
// ?order=chronological is given.
func (h *Handler) GetHistory(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	recentFirst := true
	switch c.QueryParam("order") {
	case "", "recent":
	case "chronological":
		recentFirst = false
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "order must be \"recent\" or \"chronological\"")
	}
	history, err := h.reg.History(c.Request().Context(), id, recentFirst)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"patient_id": id, "history": history})
}

func (h *Handler) AdmitPatient(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req admitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	room := GeneralWard
	if req.RoomType != "" {
		if room, err = ParseRoomType(req.RoomType); err != nil {
			return httpError(err)
		}
	}
	if err := h.reg.AdmitPatient(c.Request().Context(), id, room); err != nil {
		return httpError(err)
	}
	return h.respondPatient(c, id)
}

func (h *Handler) DischargePatient(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.reg.DischargePatient(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return h.respondPatient(c, id)
}

func (h *Handler) AddMedicalRecord(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req recordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.reg.AddMedicalRecord(c.Request().Context(), id, req.Text); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, statusResponse{Status: "recorded"})
}

func (h *Handler) RequestTest(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req testRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.reg.RequestTest(c.Request().Context(), id, req.Name); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, statusResponse{Status: "requested"})
}

func (h *Handler) PerformTest(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	name, err := h.reg.PerformTest(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"patient_id": id, "test": name})
}

func (h *Handler) respondPatient(c echo.Context, id int) error {
	p, err := h.reg.PatientInfo(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

// -- Doctor Handlers --

func (h *Handler) AddDoctor(c echo.Context) error {
	var req addDoctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	dept, err := ParseDepartment(req.Department)
	if err != nil {
		return httpError(err)
	}
	id := h.reg.AddDoctor(c.Request().Context(), req.Name, dept)
	return c.JSON(http.StatusCreated, idResponse{ID: id})
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	items := h.reg.ListDoctors(c.Request().Context())
	return c.JSON(http.StatusOK, pagination.Paginate(items, pg))
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	d, err := h.reg.DoctorInfo(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) GetDoctorReport(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := h.reg.WriteDoctorInfo(c.Request().Context(), &buf, id); err != nil {
		return httpError(err)
	}
	return c.String(http.StatusOK, buf.String())
}

func (h *Handler) ListAppointments(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	queue, err := h.reg.Appointments(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"doctor_id": id, "appointments": queue})
}

func (h *Handler) BookAppointment(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req patientRefRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	if err := h.reg.BookAppointment(c.Request().Context(), id, *req.PatientID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"doctor_id": id, "patient_id": *req.PatientID})
}

func (h *Handler) SeePatient(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	pid, err := h.reg.SeePatient(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, patientIDResponse{PatientID: pid})
}

// -- Emergency Handlers --

func (h *Handler) AddEmergency(c echo.Context) error {
	var req patientRefRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	if err := h.reg.AddEmergency(c.Request().Context(), *req.PatientID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, patientIDResponse{PatientID: *req.PatientID})
}

func (h *Handler) ListEmergencies(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"queue": h.reg.EmergencyQueue(c.Request().Context())})
}

func (h *Handler) HandleEmergency(c echo.Context) error {
	pid, err := h.reg.HandleEmergency(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, patientIDResponse{PatientID: pid})
}

func (h *Handler) GetStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.reg.Stats(c.Request().Context()))
}

func paramID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// httpError maps registry errors onto HTTP status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEmptyQueue):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

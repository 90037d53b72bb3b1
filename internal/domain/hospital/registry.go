package hospital

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ehr/hospital/internal/platform/metrics"
	"github.com/ehr/hospital/internal/platform/websocket"
)

// Registry owns every patient and doctor plus the emergency queue. All
// operations go through it and are serialized by a single mutex, so the
// two-entity BookAppointment is atomic with respect to other callers.
type Registry struct {
	mu sync.Mutex

	patients     map[int]*Patient
	patientOrder []int
	doctors      map[int]*Doctor
	doctorOrder  []int
	emergencies  []int
	admitted     int

	nextPatientID int
	nextDoctorID  int

	logger    zerolog.Logger
	report    *Reporter
	publisher websocket.EventPublisher
	metrics   *metrics.Registry
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		patients:      make(map[int]*Patient),
		doctors:       make(map[int]*Doctor),
		nextPatientID: 1,
		nextDoctorID:  1,
		logger:        logger.With().Str("component", "registry").Logger(),
		report:        NewReporter(io.Discard),
	}
}

// SetReportWriter directs the report stream to w.
func (r *Registry) SetReportWriter(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report = NewReporter(w)
}

// SetPublisher attaches an optional event publisher.
func (r *Registry) SetPublisher(p websocket.EventPublisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publisher = p
}

// SetMetrics attaches optional Prometheus collectors.
func (r *Registry) SetMetrics(m *metrics.Registry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = m
}

// -- Registration --

// RegisterPatient creates a patient with the next sequential id.
func (r *Registry) RegisterPatient(ctx context.Context, name string, age int, contact string) int {
	r.mu.Lock()
	id := r.nextPatientID
	r.nextPatientID++
	p := newPatient(id, name, age, contact)
	r.patients[id] = p
	r.patientOrder = append(r.patientOrder, id)
	r.report.Printf("Patient registered successfully with ID: %d", id)
	r.metrics.PatientRegistered()
	r.metrics.ObserveOperation("register_patient", metrics.OutcomeOK)
	r.mu.Unlock()

	r.logger.Debug().Int("patient_id", id).Msg("patient registered")
	r.publish(ctx, []websocket.Event{
		newEvent(TopicPatients, EventPatientRegistered, EntityPatient, id, map[string]any{"name": name, "age": age}),
	})
	return id
}

// AddDoctor creates a doctor with the next sequential id.
func (r *Registry) AddDoctor(ctx context.Context, name string, dept Department) int {
	r.mu.Lock()
	id := r.nextDoctorID
	r.nextDoctorID++
	r.doctors[id] = newDoctor(id, name, dept)
	r.doctorOrder = append(r.doctorOrder, id)
	r.report.Printf("Doctor added successfully with ID: %d", id)
	r.metrics.DoctorRegistered()
	r.metrics.ObserveOperation("add_doctor", metrics.OutcomeOK)
	r.mu.Unlock()

	r.logger.Debug().Int("doctor_id", id).Str("department", dept.String()).Msg("doctor added")
	r.publish(ctx, []websocket.Event{
		newEvent(TopicDoctors, EventDoctorAdded, EntityDoctor, id, map[string]any{"name": name, "department": dept}),
	})
	return id
}

// -- Admission --

// AdmitPatient admits the patient to a room. Admitting an already admitted
// patient is not an error; it only adds a history entry.
func (r *Registry) AdmitPatient(ctx context.Context, patientID int, room RoomType) error {
	if !room.Valid() {
		return invalidf("room type %d", int(room))
	}

	r.mu.Lock()
	p, ok := r.patients[patientID]
	if !ok {
		err := r.notFound("admit_patient", patientNotFound(patientID))
		r.mu.Unlock()
		return err
	}
	changed := p.Admit(room)
	if changed {
		r.admitted++
		r.metrics.SetAdmittedPatients(r.admitted)
	}
	r.report.Printf("Patient %d admission processed.", patientID)
	r.metrics.ObserveOperation("admit_patient", metrics.OutcomeOK)
	r.mu.Unlock()

	r.logger.Debug().Int("patient_id", patientID).Bool("changed", changed).Str("room_type", room.String()).Msg("admission processed")
	if changed {
		r.publish(ctx, []websocket.Event{
			newEvent(TopicAdmissions, EventPatientAdmitted, EntityPatient, patientID, map[string]any{"room_type": room}),
		})
	}
	return nil
}

// DischargePatient discharges an admitted patient. Discharging a patient who
// is not admitted only adds a history entry.
func (r *Registry) DischargePatient(ctx context.Context, patientID int) error {
	r.mu.Lock()
	p, ok := r.patients[patientID]
	if !ok {
		err := r.notFound("discharge_patient", patientNotFound(patientID))
		r.mu.Unlock()
		return err
	}
	changed := p.Discharge()
	if changed {
		r.admitted--
		r.metrics.SetAdmittedPatients(r.admitted)
	}
	r.report.Printf("Patient %d discharge processed.", patientID)
	r.metrics.ObserveOperation("discharge_patient", metrics.OutcomeOK)
	r.mu.Unlock()

	r.logger.Debug().Int("patient_id", patientID).Bool("changed", changed).Msg("discharge processed")
	if changed {
		r.publish(ctx, []websocket.Event{
			newEvent(TopicAdmissions, EventPatientDischarged, EntityPatient, patientID, nil),
		})
	}
	return nil
}

// -- Medical records and tests --

func (r *Registry) AddMedicalRecord(ctx context.Context, patientID int, text string) error {
	if strings.TrimSpace(text) == "" {
		return invalidf("record text is required")
	}

	r.mu.Lock()
	p, ok := r.patients[patientID]
	if !ok {
		err := r.notFound("add_medical_record", patientNotFound(patientID))
		r.mu.Unlock()
		return err
	}
	p.AddMedicalRecord(text)
	r.report.Printf("Medical record added for Patient %d", patientID)
	r.metrics.ObserveOperation("add_medical_record", metrics.OutcomeOK)
	r.mu.Unlock()

	r.publish(ctx, []websocket.Event{
		newEvent(TopicPatients, EventRecordAdded, EntityPatient, patientID, map[string]any{"text": text}),
	})
	return nil
}

func (r *Registry) RequestTest(ctx context.Context, patientID int, name string) error {
	if strings.TrimSpace(name) == "" {
		return invalidf("test name is required")
	}

	r.mu.Lock()
	p, ok := r.patients[patientID]
	if !ok {
		err := r.notFound("request_test", patientNotFound(patientID))
		r.mu.Unlock()
		return err
	}
	p.RequestTest(name)
	r.report.Printf("Test requested for Patient %d: %s", patientID, name)
	r.metrics.ObserveOperation("request_test", metrics.OutcomeOK)
	r.mu.Unlock()

	r.publish(ctx, []websocket.Event{
		newEvent(TopicTests, EventTestRequested, EntityPatient, patientID, map[string]any{"test": name}),
	})
	return nil
}

// PerformTest runs the patient's oldest pending test. With nothing pending it
// returns ErrEmptyQueue; the attempt is still recorded in the history.
func (r *Registry) PerformTest(ctx context.Context, patientID int) (string, error) {
	r.mu.Lock()
	p, ok := r.patients[patientID]
	if !ok {
		err := r.notFound("perform_test", patientNotFound(patientID))
		r.mu.Unlock()
		return "", err
	}
	name, err := p.PerformTest()
	if err != nil {
		r.report.Printf("No tests pending for Patient %d.", patientID)
		r.metrics.ObserveOperation("perform_test", metrics.OutcomeEmpty)
		r.mu.Unlock()
		return "", err
	}
	r.report.Printf("Test performed for Patient %d: %s", patientID, name)
	r.metrics.ObserveOperation("perform_test", metrics.OutcomeOK)
	r.mu.Unlock()

	r.publish(ctx, []websocket.Event{
		newEvent(TopicTests, EventTestPerformed, EntityPatient, patientID, map[string]any{"test": name}),
	})
	return name, nil
}

// -- Emergencies --

// AddEmergency queues an existing patient for emergency handling.
func (r *Registry) AddEmergency(ctx context.Context, patientID int) error {
	r.mu.Lock()
	if _, ok := r.patients[patientID]; !ok {
		err := r.notFound("add_emergency", patientNotFound(patientID))
		r.mu.Unlock()
		return err
	}
	r.emergencies = append(r.emergencies, patientID)
	depth := len(r.emergencies)
	r.report.Printf("Patient %d added to emergency queue.", patientID)
	r.metrics.SetEmergencyQueueDepth(depth)
	r.metrics.ObserveOperation("add_emergency", metrics.OutcomeOK)
	r.mu.Unlock()

	r.logger.Info().Int("patient_id", patientID).Int("queue_depth", depth).Msg("emergency queued")
	r.publish(ctx, []websocket.Event{
		newEvent(TopicEmergencies, EventEmergencyQueued, EntityPatient, patientID, map[string]any{"queue_depth": depth}),
	})
	return nil
}

// HandleEmergency dequeues the oldest emergency. With an empty queue it
// returns NoPatient and ErrEmptyQueue.
func (r *Registry) HandleEmergency(ctx context.Context) (int, error) {
	r.mu.Lock()
	if len(r.emergencies) == 0 {
		r.report.Printf("No emergency cases pending.")
		r.metrics.ObserveOperation("handle_emergency", metrics.OutcomeEmpty)
		r.mu.Unlock()
		return NoPatient, ErrEmptyQueue
	}
	pid := r.emergencies[0]
	r.emergencies = r.emergencies[1:]
	depth := len(r.emergencies)
	r.report.Printf("Handling emergency for Patient %d", pid)
	r.metrics.SetEmergencyQueueDepth(depth)
	r.metrics.ObserveOperation("handle_emergency", metrics.OutcomeOK)
	r.mu.Unlock()

	r.logger.Info().Int("patient_id", pid).Int("queue_depth", depth).Msg("emergency handled")
	r.publish(ctx, []websocket.Event{
		newEvent(TopicEmergencies, EventEmergencyHandled, EntityPatient, pid, map[string]any{"queue_depth": depth}),
	})
	return pid, nil
}

// EmergencyQueue returns the pending emergency patient ids, oldest first.
func (r *Registry) EmergencyQueue(_ context.Context) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.emergencies))
	copy(out, r.emergencies)
	return out
}

// -- Appointments --

// BookAppointment puts the patient on the doctor's waiting list and records
// the booking in the patient's history. The doctor is validated first. On
// any error neither entity is modified.
func (r *Registry) BookAppointment(ctx context.Context, doctorID, patientID int) error {
	r.mu.Lock()
	d, dok := r.doctors[doctorID]
	p, pok := r.patients[patientID]
	if !dok {
		err := r.notFound("book_appointment", doctorNotFound(doctorID))
		r.mu.Unlock()
		return err
	}
	if !pok {
		err := r.notFound("book_appointment", patientNotFound(patientID))
		r.mu.Unlock()
		return err
	}
	d.AddAppointment(patientID)
	p.AddMedicalRecord(historyAppointmentBooked + d.Name())
	r.report.Printf("Appointment booked: Patient %d with Doctor %d", patientID, doctorID)
	r.metrics.ObserveOperation("book_appointment", metrics.OutcomeOK)
	r.mu.Unlock()

	r.logger.Debug().Int("doctor_id", doctorID).Int("patient_id", patientID).Msg("appointment booked")
	r.publish(ctx, []websocket.Event{
		newEvent(TopicAppointments, EventAppointmentBooked, EntityDoctor, doctorID, map[string]any{"patient_id": patientID}),
	})
	return nil
}

// SeePatient hands the doctor the next patient on their waiting list.
func (r *Registry) SeePatient(ctx context.Context, doctorID int) (int, error) {
	r.mu.Lock()
	d, ok := r.doctors[doctorID]
	if !ok {
		err := r.notFound("see_patient", doctorNotFound(doctorID))
		r.mu.Unlock()
		return NoPatient, err
	}
	pid, err := d.SeePatient()
	if err != nil {
		r.report.Printf("Empty list.")
		r.metrics.ObserveOperation("see_patient", metrics.OutcomeEmpty)
		r.mu.Unlock()
		return NoPatient, err
	}
	r.report.Printf("Doctor %d is seeing Patient %d", doctorID, pid)
	r.metrics.ObserveOperation("see_patient", metrics.OutcomeOK)
	r.mu.Unlock()

	r.publish(ctx, []websocket.Event{
		newEvent(TopicAppointments, EventPatientSeen, EntityDoctor, doctorID, map[string]any{"patient_id": pid}),
	})
	return pid, nil
}

// Appointments returns the doctor's waiting list, oldest first.
func (r *Registry) Appointments(_ context.Context, doctorID int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[doctorID]
	if !ok {
		return nil, doctorNotFound(doctorID)
	}
	return d.Appointments(), nil
}

// -- Lookups and display --

func (r *Registry) PatientInfo(_ context.Context, patientID int) (PatientSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[patientID]
	if !ok {
		return PatientSnapshot{}, patientNotFound(patientID)
	}
	return p.Snapshot(), nil
}

func (r *Registry) DoctorInfo(_ context.Context, doctorID int) (DoctorSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[doctorID]
	if !ok {
		return DoctorSnapshot{}, doctorNotFound(doctorID)
	}
	return d.Snapshot(), nil
}

// History returns the patient's medical history. With recentFirst the most
// recent entry comes first; otherwise entries are in the order written.
func (r *Registry) History(_ context.Context, patientID int, recentFirst bool) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[patientID]
	if !ok {
		return nil, patientNotFound(patientID)
	}
	if recentFirst {
		return p.RecentHistory(), nil
	}
	return p.History(), nil
}

// DisplayPatientInfo writes the patient information block, history included,
// to the report stream. A missing patient is reported and returned.
func (r *Registry) DisplayPatientInfo(ctx context.Context, patientID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[patientID]
	if !ok {
		err := patientNotFound(patientID)
		r.report.Error(err)
		r.metrics.ObserveOperation("display_patient", metrics.OutcomeNotFound)
		return err
	}
	r.metrics.ObserveOperation("display_patient", metrics.OutcomeOK)
	return writePatientInfo(r.report.w, p)
}

// DisplayDoctorInfo writes the doctor information block to the report stream.
func (r *Registry) DisplayDoctorInfo(ctx context.Context, doctorID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[doctorID]
	if !ok {
		err := doctorNotFound(doctorID)
		r.report.Error(err)
		r.metrics.ObserveOperation("display_doctor", metrics.OutcomeNotFound)
		return err
	}
	r.metrics.ObserveOperation("display_doctor", metrics.OutcomeOK)
	return writeDoctorInfo(r.report.w, d)
}

// WritePatientInfo renders the patient information block to w instead of the
// report stream. Nothing is written when the patient does not exist.
func (r *Registry) WritePatientInfo(_ context.Context, w io.Writer, patientID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[patientID]
	if !ok {
		return patientNotFound(patientID)
	}
	return writePatientInfo(w, p)
}

func (r *Registry) WriteDoctorInfo(_ context.Context, w io.Writer, doctorID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[doctorID]
	if !ok {
		return doctorNotFound(doctorID)
	}
	return writeDoctorInfo(w, d)
}

// ListPatients returns every patient in registration order.
func (r *Registry) ListPatients(_ context.Context) []PatientSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PatientSnapshot, 0, len(r.patientOrder))
	for _, id := range r.patientOrder {
		out = append(out, r.patients[id].Snapshot())
	}
	return out
}

// ListDoctors returns every doctor in registration order.
func (r *Registry) ListDoctors(_ context.Context) []DoctorSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DoctorSnapshot, 0, len(r.doctorOrder))
	for _, id := range r.doctorOrder {
		out = append(out, r.doctors[id].Snapshot())
	}
	return out
}

type Stats struct {
	Patients           int `json:"patients"`
	Doctors            int `json:"doctors"`
	Admitted           int `json:"admitted"`
	PendingEmergencies int `json:"pending_emergencies"`
}

func (r *Registry) Stats(_ context.Context) Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Patients:           len(r.patients),
		Doctors:            len(r.doctors),
		Admitted:           r.admitted,
		PendingEmergencies: len(r.emergencies),
	}
}

// notFound reports a failed lookup. The caller holds r.mu.
func (r *Registry) notFound(op string, err *NotFoundError) error {
	r.report.Error(err)
	r.metrics.ObserveOperation(op, metrics.OutcomeNotFound)
	r.logger.Debug().Str("op", op).Str("entity", err.Entity).Int("id", err.ID).Msg("lookup failed")
	return err
}

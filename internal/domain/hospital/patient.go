package hospital

import (
	"fmt"
	"io"
)

// History entries written by patient state transitions.
const (
	historyAdmitted          = "Patient admitted to "
	historyAlreadyAdmitted   = "Admission attempted while already admitted"
	historyDischarged        = "Patient discharged"
	historyNotAdmitted       = "Discharge attempted while not admitted"
	historyTestRequested     = "Test requested: "
	historyTestPerformed     = "Test performed: "
	historyNoTestsPending    = "No tests pending"
	historyAppointmentBooked = "Appointment booked with Dr. "
)

// Patient owns its admission state, medical history and pending tests.
// It is not safe for concurrent use; the Registry serializes access.
type Patient struct {
	id       int
	name     string
	age      int
	contact  string
	admitted bool
	roomType RoomType
	history  []string
	tests    []string
}

func newPatient(id int, name string, age int, contact string) *Patient {
	return &Patient{
		id:       id,
		name:     name,
		age:      age,
		contact:  contact,
		roomType: GeneralWard,
	}
}

func (p *Patient) ID() int            { return p.id }
func (p *Patient) Name() string       { return p.name }
func (p *Patient) Age() int           { return p.age }
func (p *Patient) Contact() string    { return p.contact }
func (p *Patient) Admitted() bool     { return p.admitted }
func (p *Patient) RoomType() RoomType { return p.roomType }

// Admit moves the patient to the admitted state. Admitting an already
// admitted patient leaves the state alone and only records the attempt.
// It reports whether the state changed.
func (p *Patient) Admit(room RoomType) bool {
	if p.admitted {
		p.AddMedicalRecord(historyAlreadyAdmitted)
		return false
	}
	p.admitted = true
	p.roomType = room
	p.AddMedicalRecord(historyAdmitted + room.String())
	return true
}

// Discharge is the inverse of Admit. The room type keeps its last value.
func (p *Patient) Discharge() bool {
	if !p.admitted {
		p.AddMedicalRecord(historyNotAdmitted)
		return false
	}
	p.admitted = false
	p.AddMedicalRecord(historyDischarged)
	return true
}

func (p *Patient) AddMedicalRecord(text string) {
	p.history = append(p.history, text)
}

func (p *Patient) RequestTest(name string) {
	p.tests = append(p.tests, name)
	p.AddMedicalRecord(historyTestRequested + name)
}

// PerformTest runs the oldest pending test and returns its name. With no
// pending tests it records that fact and returns ErrEmptyQueue.
func (p *Patient) PerformTest() (string, error) {
	if len(p.tests) == 0 {
		p.AddMedicalRecord(historyNoTestsPending)
		return "", ErrEmptyQueue
	}
	name := p.tests[0]
	p.tests[0] = ""
	p.tests = p.tests[1:]
	p.AddMedicalRecord(historyTestPerformed + name)
	return name, nil
}

// PendingTests returns a copy of the test queue, oldest first.
func (p *Patient) PendingTests() []string {
	out := make([]string, len(p.tests))
	copy(out, p.tests)
	return out
}

// History returns a copy of the medical history in the order it was written.
func (p *Patient) History() []string {
	out := make([]string, len(p.history))
	copy(out, p.history)
	return out
}

// RecentHistory returns a copy of the medical history, most recent first.
func (p *Patient) RecentHistory() []string {
	out := make([]string, len(p.history))
	for i, entry := range p.history {
		out[len(p.history)-1-i] = entry
	}
	return out
}

// WriteHistory renders the history most recent first. The history itself is
// not modified.
func (p *Patient) WriteHistory(w io.Writer) error {
	if len(p.history) == 0 {
		_, err := fmt.Fprintln(w, "No medical history available.")
		return err
	}
	if _, err := fmt.Fprintf(w, "=== Medical History for Patient %d ===\n", p.id); err != nil {
		return err
	}
	for i := len(p.history) - 1; i >= 0; i-- {
		if _, err := fmt.Fprintf(w, "- %s\n", p.history[i]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "=================================")
	return err
}

// PatientSnapshot is a read-only copy of a patient's state.
type PatientSnapshot struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Age          int      `json:"age"`
	Contact      string   `json:"contact"`
	Admitted     bool     `json:"admitted"`
	RoomType     RoomType `json:"room_type"`
	PendingTests []string `json:"pending_tests"`
	History      []string `json:"history"`
}

// Snapshot copies the patient's state. History is most recent first.
func (p *Patient) Snapshot() PatientSnapshot {
	return PatientSnapshot{
		ID:           p.id,
		Name:         p.name,
		Age:          p.age,
		Contact:      p.contact,
		Admitted:     p.admitted,
		RoomType:     p.roomType,
		PendingTests: p.PendingTests(),
		History:      p.RecentHistory(),
	}
}

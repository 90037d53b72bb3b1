package hospital

// Doctor owns a FIFO waiting list of patient ids. It does not check that the
// ids exist; the Registry does that before booking.
type Doctor struct {
	id           int
	name         string
	department   Department
	appointments []int
}

func newDoctor(id int, name string, dept Department) *Doctor {
	return &Doctor{id: id, name: name, department: dept}
}

func (d *Doctor) ID() int                { return d.id }
func (d *Doctor) Name() string           { return d.name }
func (d *Doctor) Department() Department { return d.department }

func (d *Doctor) AddAppointment(patientID int) {
	d.appointments = append(d.appointments, patientID)
}

// SeePatient dequeues the next patient id, or returns NoPatient and
// ErrEmptyQueue when nobody is waiting.
func (d *Doctor) SeePatient() (int, error) {
	if len(d.appointments) == 0 {
		return NoPatient, ErrEmptyQueue
	}
	pid := d.appointments[0]
	d.appointments = d.appointments[1:]
	return pid, nil
}

// Appointments returns a copy of the waiting list, oldest first.
func (d *Doctor) Appointments() []int {
	out := make([]int, len(d.appointments))
	copy(out, d.appointments)
	return out
}

type DoctorSnapshot struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	Department   Department `json:"department"`
	Appointments []int      `json:"appointments"`
}

func (d *Doctor) Snapshot() DoctorSnapshot {
	return DoctorSnapshot{
		ID:           d.id,
		Name:         d.name,
		Department:   d.department,
		Appointments: d.Appointments(),
	}
}

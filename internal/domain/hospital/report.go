package hospital

import (
	"fmt"
	"io"
)

// Reporter writes the human-readable report stream: confirmation lines,
// information blocks and "Error: ..." lines. Write failures are dropped;
// the report never affects registry state.
type Reporter struct {
	w io.Writer
}

func NewReporter(w io.Writer) *Reporter {
	if w == nil {
		w = io.Discard
	}
	return &Reporter{w: w}
}

func (r *Reporter) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.w, format+"\n", args...)
}

func (r *Reporter) Error(err error) {
	if nf, ok := err.(*NotFoundError); ok {
		_, _ = fmt.Fprintln(r.w, nf.ReportLine())
		return
	}
	_, _ = fmt.Fprintf(r.w, "Error: %v\n", err)
}

func writePatientInfo(w io.Writer, p *Patient) error {
	status := "Not Admitted"
	if p.Admitted() {
		status = "Admitted"
	}
	if _, err := fmt.Fprintf(w, "\n=== PATIENT INFORMATION ===\nID: %d\nName: %s\nAdmission Status: %s\n",
		p.ID(), p.Name(), status); err != nil {
		return err
	}
	return p.WriteHistory(w)
}

func writeDoctorInfo(w io.Writer, d *Doctor) error {
	_, err := fmt.Fprintf(w, "\n=== DOCTOR INFORMATION ===\nID: %d\nName: %s\nDepartment: %s\n=========================\n",
		d.ID(), d.Name(), d.Department())
	return err
}

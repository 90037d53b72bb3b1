package hospital

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmptyQueue = errors.New("queue is empty")
	ErrInvalid    = errors.New("invalid input")
)

// NoPatient is returned by queue operations that had no patient to hand out.
const NoPatient = -1

// Entity names used in not-found reports.
const (
	EntityPatient = "Patient"
	EntityDoctor  = "Doctor"
)

// NotFoundError reports a lookup of an id that does not exist in the registry.
type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ReportLine renders the error the way it appears in the report stream.
func (e *NotFoundError) ReportLine() string {
	return "Error: " + e.Error() + "."
}

func patientNotFound(id int) *NotFoundError {
	return &NotFoundError{Entity: EntityPatient, ID: id}
}

func doctorNotFound(id int) *NotFoundError {
	return &NotFoundError{Entity: EntityDoctor, ID: id}
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}

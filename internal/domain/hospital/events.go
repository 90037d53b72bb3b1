package hospital

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/ehr/hospital/internal/platform/websocket"
)

// Topics registry events are published on.
const (
	TopicPatients     = "patients"
	TopicDoctors      = "doctors"
	TopicAdmissions   = "admissions"
	TopicAppointments = "appointments"
	TopicEmergencies  = "emergencies"
	TopicTests        = "tests"
)

// Event types.
const (
	EventPatientRegistered = "patient.registered"
	EventDoctorAdded       = "doctor.added"
	EventPatientAdmitted   = "patient.admitted"
	EventPatientDischarged = "patient.discharged"
	EventRecordAdded       = "patient.record_added"
	EventTestRequested     = "test.requested"
	EventTestPerformed     = "test.performed"
	EventAppointmentBooked = "appointment.booked"
	EventPatientSeen       = "appointment.seen"
	EventEmergencyQueued   = "emergency.queued"
	EventEmergencyHandled  = "emergency.handled"
)

func newEvent(topic, eventType, resourceType string, id int, payload any) websocket.Event {
	evt := websocket.Event{
		ID:           websocket.NewEventID(),
		Type:         eventType,
		Topic:        topic,
		ResourceType: resourceType,
		ResourceID:   strconv.Itoa(id),
		Timestamp:    time.Now().UTC(),
	}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			evt.Data = data
		}
	}
	return evt
}

// publish is called after the registry lock is released; it takes the lock
// only to read the current publisher. Delivery is best effort.
func (r *Registry) publish(ctx context.Context, events []websocket.Event) {
	r.mu.Lock()
	pub := r.publisher
	r.mu.Unlock()

	if pub == nil {
		return
	}
	for _, evt := range events {
		if err := pub.Publish(ctx, evt); err != nil {
			r.logger.Warn().Err(err).Str("event", evt.Type).Msg("publish registry event")
		}
	}
}

package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no-show"
)

// DefaultDuration is assumed for appointments stored without an explicit
// duration.
const DefaultDuration = 45 * time.Minute

// allowedTransitions lists which status changes are legal. Completed,
// cancelled and no-show are terminal.
var allowedTransitions = map[Status][]Status{
	StatusScheduled: {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Active reports whether the appointment still occupies calendar time.
func (s Status) Active() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// Appointment is one booked consultation. Reschedules write a new StartTime
// onto the same row; rows are never deleted by the reschedule flow.
type Appointment struct {
	ID           uuid.UUID
	PatientName  string
	PatientEmail *string
	PatientPhone *string
	StartTime    time.Time
	Duration     time.Duration
	Status       Status
	Notes        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EffectiveDuration returns the stored duration, or DefaultDuration when the
// row has none.
func (a Appointment) EffectiveDuration() time.Duration {
	if a.Duration <= 0 {
		return DefaultDuration
	}
	return a.Duration
}

// End is the instant the appointment stops occupying its slot.
func (a Appointment) End() time.Time {
	return a.StartTime.Add(a.EffectiveDuration())
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

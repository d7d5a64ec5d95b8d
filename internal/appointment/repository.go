package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// ListByDate returns every appointment whose start falls on the given
	// calendar day, ordered by start time.
	ListByDate(ctx context.Context, day time.Time) ([]Appointment, error)

	Create(ctx context.Context, a *Appointment) (*Appointment, error)

	// Reschedule writes a new start time (and optionally a reason note) onto
	// an existing row. The row is never deleted.
	Reschedule(ctx context.Context, id uuid.UUID, newStart time.Time, reason string) (*Appointment, error)

	// UpdateStatus performs a compare-and-set status change, failing with
	// ErrAppointmentNotFound when the row is missing or not in `from`.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// FindElapsedActive returns active appointments whose end time is before
	// now; used by the no-show worker.
	FindElapsedActive(ctx context.Context, now time.Time) ([]Appointment, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}

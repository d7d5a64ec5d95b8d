package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/vlad-pos/medflow/internal/redis"
	"github.com/vlad-pos/medflow/internal/schedule"
)

const (
	EventAppointmentBooked      = "APPOINTMENT_BOOKED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	EventStatusChanged          = "APPOINTMENT_STATUS_CHANGED"
	EventMarkedNoShow           = "APPOINTMENT_MARKED_NO_SHOW"
)

var (
	ErrSlotTaken               = errors.New("requested time conflicts with an existing appointment")
	ErrOutsideWorkingHours     = errors.New("requested time is outside working hours")
	ErrRescheduleInProgress    = errors.New("a reschedule for this appointment is already in progress, please retry")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrAppointmentInactive     = errors.New("appointment is no longer active")
)

type Service struct {
	repo        Repository
	locker      redisclient.Locker
	constraints schedule.Constraints
	now         func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, constraints schedule.Constraints) *Service {
	return &Service{
		repo:        repo,
		locker:      locker,
		constraints: constraints,
		now:         time.Now,
	}
}

// AppointmentsForDate returns every appointment booked on the given calendar
// day.
func (s *Service) AppointmentsForDate(ctx context.Context, day time.Time) ([]Appointment, error) {
	appts, err := s.repo.ListByDate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("list appointments for date: %w", err)
	}
	return appts, nil
}

// AvailableSlots computes the slot list for one day against the booked
// appointments in the store. excludeID may be uuid.Nil.
func (s *Service) AvailableSlots(ctx context.Context, day time.Time, excludeID uuid.UUID) ([]schedule.TimeSlot, error) {
	appts, err := s.repo.ListByDate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("list appointments for availability: %w", err)
	}

	exclude := ""
	if excludeID != uuid.Nil {
		exclude = excludeID.String()
	}

	return schedule.AvailableSlots(day, s.constraints, bookings(appts), exclude, s.now()), nil
}

type BookInput struct {
	PatientName  string
	PatientEmail *string
	PatientPhone *string
	StartTime    time.Time
	Duration     time.Duration
	Notes        *string
}

// Book creates a new scheduled appointment after verifying the requested time
// lands on an offered, unoccupied slot.
func (s *Service) Book(ctx context.Context, in BookInput) (*Appointment, error) {
	if err := s.checkSlotFree(ctx, in.StartTime, uuid.Nil); err != nil {
		return nil, err
	}

	appt := &Appointment{
		PatientName:  in.PatientName,
		PatientEmail: in.PatientEmail,
		PatientPhone: in.PatientPhone,
		StartTime:    in.StartTime,
		Duration:     in.Duration,
		Status:       StatusScheduled,
		Notes:        in.Notes,
	}

	created, err := s.repo.Create(ctx, appt)
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.logEvent(ctx, created.ID, EventAppointmentBooked, map[string]any{
		"start_time": created.StartTime,
		"patient":    created.PatientName,
	})

	return created, nil
}

type RescheduleInput struct {
	AppointmentID uuid.UUID
	NewStartTime  time.Time
	Reason        string
	PatientName   string
	PatientEmail  string
}

// SubmitReschedule moves an appointment to a new start time. The critical
// section is guarded by a per-appointment lock: a second submission for the
// same appointment while one is in flight fails with
// ErrRescheduleInProgress instead of writing twice.
func (s *Service) SubmitReschedule(ctx context.Context, in RescheduleInput) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, in.AppointmentID)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if !appt.Status.Active() {
		return nil, ErrAppointmentInactive
	}

	var updated *Appointment

	err = s.locker.WithAppointmentLock(ctx, in.AppointmentID, func(lockCtx context.Context) error {
		// Re-check the target slot inside the critical section. The
		// appointment's own current slot is excluded so it does not block
		// itself.
		if err := s.checkSlotFree(lockCtx, in.NewStartTime, in.AppointmentID); err != nil {
			return err
		}

		moved, err := s.repo.Reschedule(lockCtx, in.AppointmentID, in.NewStartTime, in.Reason)
		if err != nil {
			return fmt.Errorf("reschedule appointment: %w", err)
		}
		updated = moved

		s.logEvent(lockCtx, moved.ID, EventAppointmentRescheduled, map[string]any{
			"old_start": appt.StartTime,
			"new_start": moved.StartTime,
			"reason":    in.Reason,
			"patient":   in.PatientName,
			"email":     in.PatientEmail,
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrRescheduleInProgress
		}
		return nil, err
	}

	return updated, nil
}

// Transition moves an appointment to a new lifecycle status, enforcing the
// allowed transition table.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if !CanTransition(appt.Status, to) {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, appt.Status, to)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventStatusChanged, map[string]any{
		"from": appt.Status,
		"to":   to,
	})

	return updated, nil
}

// MarkNoShows is intended to be called by the worker periodically. Active
// appointments whose end time has passed are flipped to no-show.
func (s *Service) MarkNoShows(ctx context.Context) error {
	now := s.now()
	elapsed, err := s.repo.FindElapsedActive(ctx, now)
	if err != nil {
		return fmt.Errorf("find elapsed active appointments: %w", err)
	}

	for _, appt := range elapsed {
		_, err := s.repo.UpdateStatus(ctx, appt.ID, appt.Status, StatusNoShow)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			log.Printf("failed to mark appointment %s as no-show: %v", appt.ID, err)
			continue
		}
		s.logEvent(ctx, appt.ID, EventMarkedNoShow, map[string]any{
			"reason": "worker",
		})
	}

	return nil
}

// Get retrieves an appointment by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// checkSlotFree verifies that start lands on a slot the calculator offers
// and that the slot is not occupied by another appointment.
func (s *Service) checkSlotFree(ctx context.Context, start time.Time, excludeID uuid.UUID) error {
	slots, err := s.AvailableSlots(ctx, start, excludeID)
	if err != nil {
		return err
	}

	for _, slot := range slots {
		if slot.Start.Equal(start) {
			if !slot.Available {
				return ErrSlotTaken
			}
			return nil
		}
	}
	return ErrOutsideWorkingHours
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for appointment %s: %v", eventType, appointmentID, err)
	}
}

// bookings maps stored appointments to calculator input. Inactive
// appointments no longer block their slots.
func bookings(appts []Appointment) []schedule.Booking {
	out := make([]schedule.Booking, 0, len(appts))
	for _, a := range appts {
		if !a.Status.Active() {
			continue
		}
		out = append(out, schedule.Booking{
			ID:       a.ID.String(),
			Start:    a.StartTime,
			Duration: a.EffectiveDuration(),
		})
	}
	return out
}

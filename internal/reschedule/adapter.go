package reschedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vlad-pos/medflow/internal/appointment"
	"github.com/vlad-pos/medflow/internal/schedule"
)

// StoreAdapter plugs the appointment service into the workflow's collaborator
// interfaces.
type StoreAdapter struct {
	Service *appointment.Service
}

func (a StoreAdapter) AvailableSlots(ctx context.Context, date time.Time, excludeID string) ([]schedule.TimeSlot, error) {
	exclude := uuid.Nil
	if excludeID != "" {
		parsed, err := uuid.Parse(excludeID)
		if err != nil {
			return nil, fmt.Errorf("parse exclude id: %w", err)
		}
		exclude = parsed
	}
	return a.Service.AvailableSlots(ctx, date, exclude)
}

func (a StoreAdapter) SubmitReschedule(ctx context.Context, sub Submission) error {
	id, err := uuid.Parse(sub.AppointmentID)
	if err != nil {
		return fmt.Errorf("parse appointment id: %w", err)
	}

	_, err = a.Service.SubmitReschedule(ctx, appointment.RescheduleInput{
		AppointmentID: id,
		NewStartTime:  sub.NewDateTime,
		Reason:        sub.Reason,
		PatientName:   sub.PatientName,
		PatientEmail:  sub.PatientEmail,
	})
	return err
}

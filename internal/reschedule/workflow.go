// Package reschedule drives the patient-facing reschedule flow: pick a date,
// pick a free slot, confirm, submit. It owns no storage; it talks to a slot
// source and a submitter and tracks where in the flow the user is.
package reschedule

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/vlad-pos/medflow/internal/schedule"
)

// State is the workflow's current step.
type State string

const (
	StateDateSelection State = "date-selection"
	StateTimeSelection State = "time-selection"
	StateFormInput     State = "form-input"
	StateLoading       State = "loading"
	StateError         State = "error"
	StateSuccess       State = "success"
)

var (
	ErrInvalidState    = errors.New("action not allowed in current workflow state")
	ErrSlotUnavailable = errors.New("selected slot is not available")
)

// SlotSource fetches the slot list for one calendar day, excluding the
// appointment being rescheduled from conflict checks.
type SlotSource interface {
	AvailableSlots(ctx context.Context, date time.Time, excludeID string) ([]schedule.TimeSlot, error)
}

// Submission is what the workflow hands to the store on confirm.
type Submission struct {
	AppointmentID string
	NewDateTime   time.Time
	Reason        string
	PatientName   string
	PatientEmail  string
}

type Submitter interface {
	SubmitReschedule(ctx context.Context, sub Submission) error
}

// FallbackFunc produces substitute slots when the real fetch fails.
type FallbackFunc func(date time.Time) []schedule.TimeSlot

// FormInput is what the patient types on the confirmation form.
type FormInput struct {
	Reason       string
	PatientName  string
	PatientEmail string
}

// Workflow is the reschedule state machine for a single appointment. It is
// not safe for concurrent use; one instance serves one user session, and at
// most one fetch or submission is in flight at a time.
type Workflow struct {
	// Fallback substitutes slot data when the source fails. When nil, a
	// failed fetch yields an empty slot list but the flow still advances.
	Fallback FallbackFunc

	// OnTransition, when set, observes every state change.
	OnTransition func(from, to State)

	appointmentID string
	source        SlotSource
	submitter     Submitter

	state        State
	selectedDate time.Time
	slots        []schedule.TimeSlot
	selectedSlot *schedule.TimeSlot
}

func New(appointmentID string, source SlotSource, submitter Submitter) *Workflow {
	return &Workflow{
		appointmentID: appointmentID,
		source:        source,
		submitter:     submitter,
		state:         StateDateSelection,
	}
}

func (w *Workflow) State() State                     { return w.state }
func (w *Workflow) SelectedDate() time.Time          { return w.selectedDate }
func (w *Workflow) Slots() []schedule.TimeSlot       { return w.slots }
func (w *Workflow) SelectedSlot() *schedule.TimeSlot { return w.selectedSlot }

func (w *Workflow) transition(to State) {
	from := w.state
	w.state = to
	if w.OnTransition != nil {
		w.OnTransition(from, to)
	}
}

// SelectDate fetches slots for the chosen day and advances to time selection.
// A fetch failure is masked: the user gets fallback slots, never an error
// state.
func (w *Workflow) SelectDate(ctx context.Context, date time.Time) error {
	if w.state != StateDateSelection {
		return ErrInvalidState
	}

	w.transition(StateLoading)

	slots, err := w.source.AvailableSlots(ctx, date, w.appointmentID)
	if err != nil {
		log.Printf("slot fetch failed for %s, using fallback data: %v", date.Format("2006-01-02"), err)
		if w.Fallback != nil {
			slots = w.Fallback(date)
		} else {
			slots = nil
		}
	}

	w.selectedDate = date
	w.slots = slots
	w.transition(StateTimeSelection)
	return nil
}

// SelectSlot picks one of the fetched slots and advances to the confirmation
// form.
func (w *Workflow) SelectSlot(slot schedule.TimeSlot) error {
	if w.state != StateTimeSelection {
		return ErrInvalidState
	}
	if !slot.Available {
		return ErrSlotUnavailable
	}

	w.selectedSlot = &slot
	w.transition(StateFormInput)
	return nil
}

// Submit confirms the reschedule. The new timestamp combines the selected
// calendar date with the selected slot's start time. On failure the workflow
// lands in the error state; the only way out is Reset.
func (w *Workflow) Submit(ctx context.Context, form FormInput) error {
	if w.state != StateFormInput {
		return ErrInvalidState
	}
	if w.selectedSlot == nil {
		return ErrInvalidState
	}

	w.transition(StateLoading)

	year, month, day := w.selectedDate.Date()
	start := w.selectedSlot.Start
	newDateTime := time.Date(year, month, day, start.Hour(), start.Minute(), 0, 0, w.selectedDate.Location())

	sub := Submission{
		AppointmentID: w.appointmentID,
		NewDateTime:   newDateTime,
		Reason:        form.Reason,
		PatientName:   form.PatientName,
		PatientEmail:  form.PatientEmail,
	}

	if err := w.submitter.SubmitReschedule(ctx, sub); err != nil {
		w.transition(StateError)
		return fmt.Errorf("submit reschedule: %w", err)
	}

	w.transition(StateSuccess)
	return nil
}

// Back steps one screen backwards. Leaving time selection discards the
// fetched slots so the next date pick re-fetches; leaving the form keeps the
// date and slot list.
func (w *Workflow) Back() error {
	switch w.state {
	case StateTimeSelection:
		w.slots = nil
		w.transition(StateDateSelection)
		return nil
	case StateFormInput:
		w.selectedSlot = nil
		w.transition(StateTimeSelection)
		return nil
	default:
		return ErrInvalidState
	}
}

// Reset returns to date selection from any state, clearing the selected
// date, slot and slot list. It is both the error-recovery path and the
// "schedule another" path after success.
func (w *Workflow) Reset() {
	w.selectedDate = time.Time{}
	w.selectedSlot = nil
	w.slots = nil
	w.transition(StateDateSelection)
}

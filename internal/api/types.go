package api

import (
	"time"

	"github.com/google/uuid"
)

type BookAppointmentRequest struct {
	PatientName     string  `json:"patient_name"`
	PatientEmail    *string `json:"patient_email,omitempty"`
	PatientPhone    *string `json:"patient_phone,omitempty"`
	StartTime       string  `json:"start_time"` // RFC 3339
	DurationMinutes int     `json:"duration_minutes,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

type RescheduleRequest struct {
	NewStartTime string `json:"new_start_time"` // RFC 3339
	Reason       string `json:"reason,omitempty"`
	PatientName  string `json:"patient_name,omitempty"`
	PatientEmail string `json:"patient_email,omitempty"`
}

type TransitionRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	PatientName     string    `json:"patient_name"`
	PatientEmail    *string   `json:"patient_email,omitempty"`
	PatientPhone    *string   `json:"patient_phone,omitempty"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	Notes           *string   `json:"notes,omitempty"`
}

type SlotResponse struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Available     bool      `json:"available"`
	AppointmentID string    `json:"appointment_id,omitempty"`
}

type AvailabilityResponse struct {
	Date  string         `json:"date"`
	Slots []SlotResponse `json:"slots"`
	Demo  bool           `json:"demo,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

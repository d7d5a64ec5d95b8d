package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vlad-pos/medflow/internal/appointment"
	"github.com/vlad-pos/medflow/internal/demo"
	"github.com/vlad-pos/medflow/internal/schedule"
)

type stubRepo struct {
	appts   []appointment.Appointment
	listErr error
}

func (s *stubRepo) GetByID(context.Context, uuid.UUID) (*appointment.Appointment, error) {
	return nil, appointment.ErrAppointmentNotFound
}

func (s *stubRepo) ListByDate(context.Context, time.Time) ([]appointment.Appointment, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.appts, nil
}

func (s *stubRepo) Create(context.Context, *appointment.Appointment) (*appointment.Appointment, error) {
	return nil, errors.New("not implemented")
}

func (s *stubRepo) Reschedule(context.Context, uuid.UUID, time.Time, string) (*appointment.Appointment, error) {
	return nil, errors.New("not implemented")
}

func (s *stubRepo) UpdateStatus(context.Context, uuid.UUID, appointment.Status, appointment.Status) (*appointment.Appointment, error) {
	return nil, errors.New("not implemented")
}

func (s *stubRepo) FindElapsedActive(context.Context, time.Time) ([]appointment.Appointment, error) {
	return nil, nil
}

func (s *stubRepo) InsertEvent(context.Context, appointment.EventLog) error { return nil }

type noopLocker struct{}

func (noopLocker) WithAppointmentLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func availabilityServer(repo *stubRepo) http.Handler {
	constraints := schedule.Constraints{
		WorkDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		WorkStartHour: 8,
		WorkEndHour:   10,
		SlotDuration:  time.Hour,
	}
	svc := appointment.NewService(repo, noopLocker{}, constraints)
	return availabilityHandler(svc, demo.NewStore(constraints))
}

func TestAvailabilityHandler_WorkDay(t *testing.T) {
	// 2026-01-28 is a Wednesday.
	start := time.Date(2026, 1, 28, 8, 0, 0, 0, time.Local)
	repo := &stubRepo{appts: []appointment.Appointment{{
		ID:          uuid.New(),
		PatientName: "Ana Popescu",
		StartTime:   start,
		Duration:    time.Hour,
		Status:      appointment.StatusScheduled,
	}}}

	req := httptest.NewRequest(http.MethodGet, "/availability?date=2026-01-28", nil)
	rec := httptest.NewRecorder()
	availabilityServer(repo).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp AvailabilityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Demo {
		t.Fatal("live data must not be flagged as demo")
	}
	if len(resp.Slots) != 2 {
		t.Fatalf("slots = %d, want 2", len(resp.Slots))
	}
	if resp.Slots[0].Available {
		t.Error("expected 08:00 slot to be unavailable")
	}
	if !resp.Slots[1].Available {
		t.Error("expected 09:00 slot to be available")
	}
}

func TestAvailabilityHandler_WeekendEmpty(t *testing.T) {
	// 2026-01-31 is a Saturday.
	req := httptest.NewRequest(http.MethodGet, "/availability?date=2026-01-31", nil)
	rec := httptest.NewRecorder()
	availabilityServer(&stubRepo{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp AvailabilityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Slots) != 0 {
		t.Fatalf("expected no slots on a Saturday, got %d", len(resp.Slots))
	}
}

func TestAvailabilityHandler_StoreFailureServesDemoData(t *testing.T) {
	repo := &stubRepo{listErr: errors.New("store unreachable")}

	req := httptest.NewRequest(http.MethodGet, "/availability?date=2026-01-28", nil)
	rec := httptest.NewRecorder()
	availabilityServer(repo).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("store failures must be masked, status = %d, want 200", rec.Code)
	}

	var resp AvailabilityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Demo {
		t.Fatal("fallback response must be flagged as demo")
	}
	if len(resp.Slots) != 2 {
		t.Fatalf("demo slots = %d, want the same enumeration as live data", len(resp.Slots))
	}
}

func TestAvailabilityHandler_BadDate(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/availability?date=28-01-2026", nil)
	rec := httptest.NewRecorder()
	availabilityServer(&stubRepo{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/vlad-pos/medflow/internal/redis"
	"github.com/vlad-pos/medflow/internal/schedule"
)

// 2026-01-28 is a Wednesday.
var (
	wednesday = time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	evalTime  = time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)
)

type memRepo struct {
	appts   map[uuid.UUID]*Appointment
	events  []EventLog
	listErr error
}

func newMemRepo() *memRepo {
	return &memRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) ListByDate(_ context.Context, day time.Time) ([]Appointment, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	y, mo, d := day.Date()
	var out []Appointment
	for _, a := range m.appts {
		ay, am, ad := a.StartTime.Date()
		if ay == y && am == mo && ad == d {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memRepo) Create(_ context.Context, a *Appointment) (*Appointment, error) {
	cp := *a
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.appts[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memRepo) Reschedule(_ context.Context, id uuid.UUID, newStart time.Time, reason string) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.StartTime = newStart
	if reason != "" {
		r := reason
		a.Notes = &r
	}
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (m *memRepo) FindElapsedActive(_ context.Context, now time.Time) ([]Appointment, error) {
	var out []Appointment
	for _, a := range m.appts {
		if a.Status.Active() && a.End().Before(now) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memRepo) InsertEvent(_ context.Context, ev EventLog) error {
	m.events = append(m.events, ev)
	return nil
}

type memLocker struct {
	busy bool
}

func (l *memLocker) WithAppointmentLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	if l.busy {
		return redisclient.ErrLockNotAcquired
	}
	return fn(ctx)
}

func testConstraints() schedule.Constraints {
	return schedule.Constraints{
		WorkDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		WorkStartHour: 8,
		WorkEndHour:   12,
		SlotDuration:  time.Hour,
	}
}

func newTestService(repo *memRepo, locker *memLocker) *Service {
	svc := NewService(repo, locker, testConstraints())
	svc.now = func() time.Time { return evalTime }
	return svc
}

func seed(t *testing.T, repo *memRepo, start time.Time, status Status) *Appointment {
	t.Helper()
	a, err := repo.Create(context.Background(), &Appointment{
		PatientName: "Ion Ionescu",
		StartTime:   start,
		Duration:    time.Hour,
		Status:      status,
	})
	if err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	return a
}

func TestBook_ConflictAndOutsideHours(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &memLocker{})
	seed(t, repo, wednesday.Add(8*time.Hour), StatusScheduled)

	_, err := svc.Book(context.Background(), BookInput{
		PatientName: "Maria Pop",
		StartTime:   wednesday.Add(8 * time.Hour),
	})
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("booking an occupied slot: %v, want ErrSlotTaken", err)
	}

	_, err = svc.Book(context.Background(), BookInput{
		PatientName: "Maria Pop",
		StartTime:   wednesday.Add(19 * time.Hour),
	})
	if !errors.Is(err, ErrOutsideWorkingHours) {
		t.Fatalf("booking outside the work window: %v, want ErrOutsideWorkingHours", err)
	}

	booked, err := svc.Book(context.Background(), BookInput{
		PatientName: "Maria Pop",
		StartTime:   wednesday.Add(9 * time.Hour),
	})
	if err != nil {
		t.Fatalf("booking a free slot: %v", err)
	}
	if booked.Status != StatusScheduled {
		t.Fatalf("new booking status = %s, want %s", booked.Status, StatusScheduled)
	}
}

func TestBook_CancelledAppointmentDoesNotBlock(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &memLocker{})
	seed(t, repo, wednesday.Add(8*time.Hour), StatusCancelled)

	_, err := svc.Book(context.Background(), BookInput{
		PatientName: "Maria Pop",
		StartTime:   wednesday.Add(8 * time.Hour),
	})
	if err != nil {
		t.Fatalf("cancelled appointments must not block their slot: %v", err)
	}
}

func TestSubmitReschedule_MovesAppointment(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &memLocker{})
	appt := seed(t, repo, wednesday.Add(8*time.Hour), StatusScheduled)

	moved, err := svc.SubmitReschedule(context.Background(), RescheduleInput{
		AppointmentID: appt.ID,
		NewStartTime:  wednesday.Add(10 * time.Hour),
		Reason:        "patient request",
	})
	if err != nil {
		t.Fatalf("SubmitReschedule: %v", err)
	}
	if !moved.StartTime.Equal(wednesday.Add(10 * time.Hour)) {
		t.Fatalf("start time = %s, want 10:00", moved.StartTime)
	}

	var found bool
	for _, ev := range repo.events {
		if ev.EventType == EventAppointmentRescheduled {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a reschedule event to be logged")
	}
}

func TestSubmitReschedule_OwnSlotDoesNotBlock(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &memLocker{})
	appt := seed(t, repo, wednesday.Add(8*time.Hour), StatusScheduled)

	// Rescheduling to its own current time must succeed: the appointment is
	// excluded from its own conflict check.
	_, err := svc.SubmitReschedule(context.Background(), RescheduleInput{
		AppointmentID: appt.ID,
		NewStartTime:  wednesday.Add(8 * time.Hour),
	})
	if err != nil {
		t.Fatalf("rescheduling onto its own slot: %v", err)
	}
}

func TestSubmitReschedule_ConflictWithOther(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &memLocker{})
	appt := seed(t, repo, wednesday.Add(8*time.Hour), StatusScheduled)
	seed(t, repo, wednesday.Add(9*time.Hour), StatusConfirmed)

	_, err := svc.SubmitReschedule(context.Background(), RescheduleInput{
		AppointmentID: appt.ID,
		NewStartTime:  wednesday.Add(9 * time.Hour),
	})
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("rescheduling onto an occupied slot: %v, want ErrSlotTaken", err)
	}
}

func TestSubmitReschedule_LockBusy(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &memLocker{busy: true})
	appt := seed(t, repo, wednesday.Add(8*time.Hour), StatusScheduled)

	_, err := svc.SubmitReschedule(context.Background(), RescheduleInput{
		AppointmentID: appt.ID,
		NewStartTime:  wednesday.Add(10 * time.Hour),
	})
	if !errors.Is(err, ErrRescheduleInProgress) {
		t.Fatalf("busy lock: %v, want ErrRescheduleInProgress", err)
	}
}

func TestSubmitReschedule_InactiveAppointment(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &memLocker{})
	appt := seed(t, repo, wednesday.Add(8*time.Hour), StatusCompleted)

	_, err := svc.SubmitReschedule(context.Background(), RescheduleInput{
		AppointmentID: appt.ID,
		NewStartTime:  wednesday.Add(10 * time.Hour),
	})
	if !errors.Is(err, ErrAppointmentInactive) {
		t.Fatalf("rescheduling a completed appointment: %v, want ErrAppointmentInactive", err)
	}
}

func TestTransition_Table(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &memLocker{})
	appt := seed(t, repo, wednesday.Add(8*time.Hour), StatusScheduled)

	updated, err := svc.Transition(context.Background(), appt.ID, StatusConfirmed)
	if err != nil {
		t.Fatalf("scheduled -> confirmed: %v", err)
	}
	if updated.Status != StatusConfirmed {
		t.Fatalf("status = %s, want %s", updated.Status, StatusConfirmed)
	}

	if _, err := svc.Transition(context.Background(), appt.ID, StatusCompleted); err != nil {
		t.Fatalf("confirmed -> completed: %v", err)
	}

	_, err = svc.Transition(context.Background(), appt.ID, StatusConfirmed)
	if !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("completed -> confirmed: %v, want ErrInvalidStatusTransition", err)
	}
}

func TestMarkNoShows(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &memLocker{})

	elapsed := seed(t, repo, evalTime.Add(-3*time.Hour), StatusScheduled)
	upcoming := seed(t, repo, evalTime.Add(2*time.Hour), StatusScheduled)

	if err := svc.MarkNoShows(context.Background()); err != nil {
		t.Fatalf("MarkNoShows: %v", err)
	}

	got, _ := repo.GetByID(context.Background(), elapsed.ID)
	if got.Status != StatusNoShow {
		t.Fatalf("elapsed appointment status = %s, want %s", got.Status, StatusNoShow)
	}

	got, _ = repo.GetByID(context.Background(), upcoming.ID)
	if got.Status != StatusScheduled {
		t.Fatalf("upcoming appointment status = %s, want %s", got.Status, StatusScheduled)
	}
}

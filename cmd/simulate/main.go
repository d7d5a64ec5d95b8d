// simulate exercises the reschedule flow end to end against a live store:
// it picks booked appointments over the coming days and walks each one
// through the full workflow onto a new free slot, reporting outcomes.
package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"github.com/vlad-pos/medflow/internal/appointment"
	"github.com/vlad-pos/medflow/internal/config"
	"github.com/vlad-pos/medflow/internal/db"
	"github.com/vlad-pos/medflow/internal/demo"
	redisclient "github.com/vlad-pos/medflow/internal/redis"
	"github.com/vlad-pos/medflow/internal/reschedule"
	"github.com/vlad-pos/medflow/internal/schedule"
)

const (
	lookaheadDays  = 14
	maxReschedules = 25
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulate starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer rdb.Close()

	constraints := schedule.DefaultConstraints()
	repo := appointment.NewPgRepository(pgPool)
	locker := redisclient.NewRedisAppointmentLocker(rdb, cfg.LockTTL)
	svc := appointment.NewService(repo, locker, constraints)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	moved, failed, skipped := 0, 0, 0
	today := time.Now()

	for d := 1; d <= lookaheadDays && moved < maxReschedules; d++ {
		day := today.AddDate(0, 0, d)

		appts, err := svc.AppointmentsForDate(ctx, day)
		if err != nil {
			log.Printf("list %s: %v", day.Format("2006-01-02"), err)
			continue
		}

		for _, appt := range appts {
			if moved >= maxReschedules {
				break
			}
			if !appt.Status.Active() || rng.Float64() > 0.3 {
				continue
			}

			target := today.AddDate(0, 0, 1+rng.Intn(lookaheadDays))
			if err := runWorkflow(ctx, svc, constraints, appt, target); err != nil {
				if errors.Is(err, errNoFreeSlot) {
					skipped++
					continue
				}
				log.Printf("reschedule %s: %v", appt.ID, err)
				failed++
				continue
			}
			moved++
		}
	}

	log.Printf("simulate complete: moved=%d failed=%d skipped=%d", moved, failed, skipped)
}

var errNoFreeSlot = errors.New("no free slot on target day")

func runWorkflow(ctx context.Context, svc *appointment.Service, constraints schedule.Constraints, appt appointment.Appointment, target time.Time) error {
	adapter := reschedule.StoreAdapter{Service: svc}

	w := reschedule.New(appt.ID.String(), adapter, adapter)
	w.Fallback = func(date time.Time) []schedule.TimeSlot {
		return demo.RandomSlots(date, constraints, time.Now(), rand.New(rand.NewSource(time.Now().UnixNano())))
	}
	w.OnTransition = func(from, to reschedule.State) {
		log.Printf("appointment=%s transition %s -> %s", appt.ID, from, to)
	}

	if err := w.SelectDate(ctx, target); err != nil {
		return err
	}

	var free *schedule.TimeSlot
	for _, slot := range w.Slots() {
		if slot.Available {
			s := slot
			free = &s
			break
		}
	}
	if free == nil {
		w.Reset()
		return errNoFreeSlot
	}

	if err := w.SelectSlot(*free); err != nil {
		return err
	}

	return w.Submit(ctx, reschedule.FormInput{
		Reason:       "simulated reschedule",
		PatientName:  appt.PatientName,
		PatientEmail: valueOr(appt.PatientEmail, ""),
	})
}

func valueOr(s *string, def string) string {
	if s != nil {
		return *s
	}
	return def
}

package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vlad-pos/medflow/internal/db"
	"github.com/vlad-pos/medflow/internal/schedule"
)

// bookProbability controls how full each seeded day looks.
const bookProbability = 0.4

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedAppointments(context.Background(), pool, 21); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

// seedAppointments fills a share of the offered slots for the next `days`
// work days with fake patients.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, days int) error {
	log.Printf("seeding appointments for the next %d days", days)

	constraints := schedule.DefaultConstraints()
	statuses := []string{"scheduled", "scheduled", "confirmed"}

	today := time.Now()
	total := 0

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for d := 1; d <= days; d++ {
		day := today.AddDate(0, 0, d)
		slots := schedule.AvailableSlots(day, constraints, nil, "", today)

		for _, slot := range slots {
			if gofakeit.Float64Range(0, 1) > bookProbability {
				continue
			}

			id := uuid.New()
			name := gofakeit.Name()
			email := gofakeit.Email()
			phone := gofakeit.Phone()
			status := statuses[gofakeit.Number(0, len(statuses)-1)]
			durationMinutes := int(constraints.SlotDuration / time.Minute)

			_, err := tx.Exec(ctx, `
				INSERT INTO appointments (id, patient_name, patient_email, patient_phone, start_time, duration_minutes, status, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			`, id, name, email, phone, slot.Start, durationMinutes, status)
			if err != nil {
				return err
			}
			total++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("appointments seeded: %d", total)
	return nil
}

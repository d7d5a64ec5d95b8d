package demo

import (
	"math/rand"
	"testing"
	"time"

	"github.com/vlad-pos/medflow/internal/schedule"
)

// 2026-01-28 is a Wednesday, 2026-01-31 a Saturday.
var (
	wednesday = time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	saturday  = time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	evalTime  = time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)
)

func TestRandomSlots_MatchesRealEnumeration(t *testing.T) {
	c := schedule.DefaultConstraints()
	rng := rand.New(rand.NewSource(1))

	real := schedule.AvailableSlots(wednesday, c, nil, "", evalTime)
	fake := RandomSlots(wednesday, c, evalTime, rng)

	if len(fake) != len(real) {
		t.Fatalf("demo slots = %d, want same count as real enumeration %d", len(fake), len(real))
	}
	for i := range fake {
		if !fake[i].Start.Equal(real[i].Start) || !fake[i].End.Equal(real[i].End) {
			t.Fatalf("slot %d boundaries differ from real enumeration", i)
		}
		if !fake[i].Available && fake[i].AppointmentID == "" {
			t.Errorf("slot %d: occupied demo slot must carry a fabricated appointment id", i)
		}
	}
}

func TestRandomSlots_NonWorkDayEmpty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	slots := RandomSlots(saturday, schedule.DefaultConstraints(), evalTime, rng)
	if len(slots) != 0 {
		t.Fatalf("expected no demo slots on Saturday, got %d", len(slots))
	}
}

func TestStore_CachesPerDay(t *testing.T) {
	s := NewStore(schedule.DefaultConstraints())
	s.now = func() time.Time { return evalTime }

	first := s.SlotsFor(wednesday)
	second := s.SlotsFor(wednesday)

	if len(first) != len(second) {
		t.Fatalf("cached lookups differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Available != second[i].Available {
			t.Fatal("repeated lookups must serve the cached generation until a refresh")
		}
	}
}

func TestStore_RefreshRegenerates(t *testing.T) {
	s := NewStore(schedule.DefaultConstraints())
	s.now = func() time.Time { return evalTime }

	before := s.SlotsFor(wednesday)
	s.refresh()
	after := s.SlotsFor(wednesday)

	if len(before) != len(after) {
		t.Fatalf("refresh changed the enumeration: %d vs %d", len(before), len(after))
	}
}

package demo

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/vlad-pos/medflow/internal/schedule"
)

// Store caches demo slots per calendar day and regenerates them on a fixed
// interval to simulate realtime updates. Last write wins; the data carries no
// ordering guarantees because it is sample data.
type Store struct {
	constraints schedule.Constraints
	now         func() time.Time

	mu    sync.RWMutex
	rng   *rand.Rand
	slots map[string][]schedule.TimeSlot
}

func NewStore(constraints schedule.Constraints) *Store {
	return &Store{
		constraints: constraints,
		now:         time.Now,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		slots:       make(map[string][]schedule.TimeSlot),
	}
}

const dayKeyFormat = "2006-01-02"

// SlotsFor returns the cached demo slots for a day, generating them on first
// request.
func (s *Store) SlotsFor(date time.Time) []schedule.TimeSlot {
	key := date.Format(dayKeyFormat)

	s.mu.RLock()
	cached, ok := s.slots[key]
	s.mu.RUnlock()
	if ok {
		return cached
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.slots[key]; ok {
		return cached
	}
	generated := RandomSlots(date, s.constraints, s.now(), s.rng)
	s.slots[key] = generated
	return generated
}

// Run regenerates every cached day on each tick until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("demo store refresh stopped")
			return
		case <-ticker.C:
			s.refresh()
		}
	}
}

func (s *Store) refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key := range s.slots {
		date, err := time.ParseInLocation(dayKeyFormat, key, now.Location())
		if err != nil {
			delete(s.slots, key)
			continue
		}
		s.slots[key] = RandomSlots(date, s.constraints, now, s.rng)
	}
}

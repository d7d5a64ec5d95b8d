// Package demo generates synthetic slot data used when the appointment store
// cannot be reached. The data is explicitly non-authoritative: availability is
// randomized, occupying appointments are fabricated.
package demo

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/vlad-pos/medflow/internal/schedule"
)

// openProbability is the chance a generated slot is shown as free.
const openProbability = 0.7

// RandomSlots produces the same slot enumeration the real calculator would,
// with availability decided by the rng instead of actual bookings. Occupied
// slots get a fabricated appointment reference.
func RandomSlots(date time.Time, c schedule.Constraints, now time.Time, rng *rand.Rand) []schedule.TimeSlot {
	slots := schedule.AvailableSlots(date, c, nil, "", now)
	for i := range slots {
		if rng.Float64() >= openProbability {
			slots[i].Available = false
			slots[i].AppointmentID = uuid.NewString()
		}
	}
	return slots
}

package schedule

import "time"

// Booking is an already-taken interval on the calendar. A zero Duration means
// the booking occupies one default slot length.
type Booking struct {
	ID       string
	Start    time.Time
	Duration time.Duration
}

// TimeSlot is one candidate appointment window. Unavailable slots carry the
// ID of the booking that occupies them.
type TimeSlot struct {
	Start         time.Time
	End           time.Time
	Available     bool
	AppointmentID string
}

// AvailableSlots returns every candidate slot for one calendar day, in
// chronological order, each flagged available or not against the given
// bookings.
//
// Non-work days produce no slots at all; this is clinic policy, not an error.
// When date falls on the same calendar day as now, slots whose start is not
// strictly in the future are dropped entirely rather than marked unavailable.
// A booking whose ID equals excludeID is ignored during conflict checks, so
// an appointment being rescheduled does not block its own original slot.
//
// All times are interpreted in date's location; callers are expected to keep
// bookings in the same location.
func AvailableSlots(date time.Time, c Constraints, booked []Booking, excludeID string, now time.Time) []TimeSlot {
	if !c.worksOn(date.Weekday()) {
		return nil
	}

	year, month, day := date.Date()
	loc := date.Location()
	dayStart := time.Date(year, month, day, c.WorkStartHour, 0, 0, 0, loc)
	dayEnd := time.Date(year, month, day, c.WorkEndHour, 0, 0, 0, loc)
	isToday := sameDay(date, now.In(loc))

	var slots []TimeSlot
	for start := dayStart; start.Before(dayEnd); start = start.Add(c.SlotDuration) {
		if isToday && !start.After(now) {
			continue
		}

		end := start.Add(c.SlotDuration)
		slot := TimeSlot{Start: start, End: end, Available: true}

		for _, b := range booked {
			if excludeID != "" && b.ID == excludeID {
				continue
			}
			bookedDur := b.Duration
			if bookedDur <= 0 {
				bookedDur = c.SlotDuration
			}
			bookedEnd := b.Start.Add(bookedDur)
			// Half-open intervals: [start,end) overlaps [b.Start,bookedEnd)
			// iff start < bookedEnd && end > b.Start.
			if start.Before(bookedEnd) && end.After(b.Start) {
				slot.Available = false
				slot.AppointmentID = b.ID
				break
			}
		}

		slots = append(slots, slot)
	}

	return slots
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

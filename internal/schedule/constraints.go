package schedule

import "time"

// Constraints describe when a clinic accepts appointments: which weekdays it
// works, the daily work window in local 24h hours, and the slot length.
type Constraints struct {
	WorkDays      []time.Weekday
	WorkStartHour int // inclusive
	WorkEndHour   int // exclusive
	SlotDuration  time.Duration
}

// DefaultConstraints is the clinic schedule used everywhere: Monday to Friday,
// 08:00 to 18:00, 45 minute consultations.
func DefaultConstraints() Constraints {
	return Constraints{
		WorkDays: []time.Weekday{
			time.Monday,
			time.Tuesday,
			time.Wednesday,
			time.Thursday,
			time.Friday,
		},
		WorkStartHour: 8,
		WorkEndHour:   18,
		SlotDuration:  45 * time.Minute,
	}
}

func (c Constraints) worksOn(d time.Weekday) bool {
	for _, wd := range c.WorkDays {
		if wd == d {
			return true
		}
	}
	return false
}

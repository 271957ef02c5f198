package domain

import "time"

// Location is a lending site scoping assets, stock, and reservations.
type Location struct {
	ID        string
	Name      string
	Hours     []OpeningHours
	CreatedAt time.Time
}

// OpeningHours is one weekly slot during which equipment may be picked up or
// returned. Open and Close are minutes since midnight local to the location.
type OpeningHours struct {
	Weekday   time.Weekday
	OpenMins  int
	CloseMins int
}

// OpenAt reports whether the location is open at t. A location without any
// configured hours is treated as always open.
func (l Location) OpenAt(t time.Time) bool {
	if len(l.Hours) == 0 {
		return true
	}
	mins := t.Hour()*60 + t.Minute()
	for _, h := range l.Hours {
		if h.Weekday == t.Weekday() && mins >= h.OpenMins && mins < h.CloseMins {
			return true
		}
	}
	return false
}

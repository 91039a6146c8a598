package logic

import "time"

// Never is a deadline that never expires.
var Never = Deadline{}

// Deadline is a point in time after which something is considered elapsed.
// The zero value never expires.
type Deadline struct {
	at time.Time
}

// After returns a deadline d after from. A negative d never expires.
func After(from time.Time, d time.Duration) Deadline {
	if d < 0 {
		return Never
	}
	return Deadline{at: from.Add(d)}
}

// At returns the deadline instant; zero for Never.
func (d Deadline) At() time.Time {
	return d.at
}

// Expired reports whether now has reached the deadline.
func (d Deadline) Expired(now time.Time) bool {
	if d.at.IsZero() {
		return false
	}
	return !now.Before(d.at)
}

// Overdue reports whether now is strictly past the deadline.
func (d Deadline) Overdue(now time.Time) bool {
	if d.at.IsZero() {
		return false
	}
	return now.After(d.at)
}

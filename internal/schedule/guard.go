package schedule

import (
	"time"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

// IsInPast reports whether the slot at date/t has already started relative to now. A slot whose
// time equals the current minute counts as past. now is interpreted in its own location.
func IsInPast(date model.Date, t model.Clock, now time.Time) bool {
	today := model.DateOf(now)
	switch {
	case date.Before(today):
		return true
	case date.After(today):
		return false
	default:
		return t <= model.ClockOf(now)
	}
}

// Clock is the source of "now" for services; tests substitute a fixed time.
type Clock interface {
	Now() time.Time
}

type systemClock struct {
	loc *time.Location
}

// SystemClock returns wall time in the clinic's location.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time {
	return time.Time(c)
}

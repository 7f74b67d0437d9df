// Package marketclock maps wall-clock time to the run mode: intraday while
// the US regular trading session is open, daily otherwise.
package marketclock

import (
	"time"

	"HoldingsRadar/internal/model"
)

var newYork *time.Location

func init() {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// Fall back to a fixed offset; only hit on systems without tzdata.
		loc = time.FixedZone("EST", -5*3600)
	}
	newYork = loc
}

// ModeAt returns the run mode for the given instant. The instant may be in
// any location; it is converted to US Eastern time before the session check.
func ModeAt(t time.Time) model.RunMode {
	if InSession(t) {
		return model.ModeIntraday
	}
	return model.ModeDaily
}

// InSession reports whether t falls inside regular trading hours:
// Monday-Friday, 09:30-16:00 US Eastern, boundaries inclusive.
func InSession(t time.Time) bool {
	ny := t.In(newYork)
	wd := ny.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	open := time.Date(ny.Year(), ny.Month(), ny.Day(), 9, 30, 0, 0, newYork)
	close := time.Date(ny.Year(), ny.Month(), ny.Day(), 16, 0, 0, 0, newYork)
	return !ny.Before(open) && !ny.After(close)
}

package domain

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests inject a fake so current-year
// checks and generated-file metadata are deterministic.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// CurrentYear returns the calendar year of the package clock. Raw files for
// the in-progress year are always incomplete and get skipped by the admission
// tooling.
func CurrentYear() int {
	return clock.Now().UTC().Year()
}

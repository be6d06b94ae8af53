package amgp

import "github.com/jonboulle/clockwork"

// clock is the package time source. "recent" and "today" date specs and the
// data-age cutoffs are all measured against it.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

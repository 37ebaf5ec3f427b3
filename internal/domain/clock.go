package domain

import "github.com/jonboulle/clockwork"

// clock stamps published year tables and times builds. Tests freeze it with
// SetClock to get reproducible headers and durations.
var clock = clockwork.NewRealClock()

// SetClock swaps the package time source. Pass nil to restore the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Clock returns the current package time source.
func Clock() clockwork.Clock {
	return clock
}

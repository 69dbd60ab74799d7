package engine

import "time"

// Clock supplies the wall time used for the exploration deadline.
//
// Production uses the system clock. Tests inject testutil.FakeClock so a
// timeout can be triggered deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real wall clock.
func SystemClock() Clock {
	return systemClock{}
}

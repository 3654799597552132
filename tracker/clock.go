package tracker

import "time"

// Clock supplies wall-clock time to the session tracker, so tests can
// drive the state machine with a fake clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real wall clock.
func SystemClock() Clock { return systemClock{} }

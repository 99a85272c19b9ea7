package ports

import "time"

// Clock is the source of the current time for every time-gated transition.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// SystemClock returns a Clock reading the ambient time.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

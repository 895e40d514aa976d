package playback

import "time"

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// RealClock returns a Clock backed by time.AfterFunc.
func RealClock() Clock {
	return realClock{}
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

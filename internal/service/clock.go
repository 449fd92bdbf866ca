package service

import "time"

// Clock supplies the current time. All expiry and availability checks go
// through an injected Clock so time-based transitions are testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

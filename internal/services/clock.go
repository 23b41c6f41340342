package services

import "time"

// Clock abstracts the current time so escalation timing is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in the configured location.
type SystemClock struct {
	Location *time.Location
}

func (clock SystemClock) Now() time.Time {
	if clock.Location == nil {
		return time.Now()
	}
	return time.Now().In(clock.Location)
}

package service

import "time"

// Clock abstracts time for the 2FA guard and approval timestamps so
// tests can drive the cooldown window.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

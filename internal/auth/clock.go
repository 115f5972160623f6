package auth

import "time"

// Clock is the process time source used for expiry comparisons.
// Injectable so lockout and rate-window behavior can be tested.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}

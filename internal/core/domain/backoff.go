package domain

import "time"

// Backoff is an explicit retry policy: a bounded sequence of delays.
// It carries no clock or scheduling of its own; call sites sleep (or
// select on a context) for the returned duration between attempts.
type Backoff struct {
	// Initial is the delay before the second attempt.
	Initial time.Duration

	// Max caps the delay regardless of attempt count.
	Max time.Duration

	// Factor multiplies the delay after each attempt (>= 1).
	Factor float64

	// MaxAttempts bounds the total number of attempts (>= 1).
	MaxAttempts int
}

// DefaultBackoff is the retry policy used for transient provider
// failures: 3 attempts at 1s, 2s cadence.
var DefaultBackoff = Backoff{
	Initial:     time.Second,
	Max:         30 * time.Second,
	Factor:      2,
	MaxAttempts: 3,
}

// Delay returns the pause before attempt n (0-based).
// Attempt 0 has no delay.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	d := b.Initial
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * b.Factor)
		if d >= b.Max {
			return b.Max
		}
	}
	if d > b.Max {
		return b.Max
	}
	return d
}

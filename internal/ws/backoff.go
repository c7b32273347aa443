package ws

import (
	"math"
	"time"
)

const DefaultReconnectDelay = 1500 * time.Millisecond

// Backoff decides how long to wait before each reconnect attempt.
// The zero value behaves like DefaultBackoff.
type Backoff struct {
	// Initial is the delay before the first retry.
	Initial time.Duration
	// Max caps the delay. Zero means no cap.
	Max time.Duration
	// Factor multiplies the delay after every failed attempt. Values below
	// 1, and NaN, are treated as 1, which gives a fixed delay.
	Factor float64
	// MaxAttempts stops retrying after this many consecutive failures.
	// Zero means retry forever.
	MaxAttempts int
}

// DefaultBackoff retries every 1.5s forever.
var DefaultBackoff = Backoff{Initial: DefaultReconnectDelay, Factor: 1}

// Delay returns the wait before retry number attempt (0-based) and whether a
// retry should happen at all.
func (b Backoff) Delay(attempt int) (time.Duration, bool) {
	if b.MaxAttempts > 0 && attempt >= b.MaxAttempts {
		return 0, false
	}

	initial := b.Initial
	if initial <= 0 {
		initial = DefaultReconnectDelay
	}

	factor := b.Factor
	if !(factor >= 1) {
		factor = 1
	}

	d := float64(initial) * math.Pow(factor, float64(attempt))
	if b.Max > 0 && d > float64(b.Max) {
		return b.Max, true
	}
	if d >= math.MaxInt64 {
		return time.Duration(math.MaxInt64), true
	}

	return time.Duration(d), true
}

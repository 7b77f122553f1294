package app

import "time"

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// acceptBackoff spaces out retries after consecutive accept failures.
// The zero value is ready to use.
type acceptBackoff struct {
	delay time.Duration
}

// next returns the delay before the next retry, doubling up to maxAcceptDelay.
func (b *acceptBackoff) next() time.Duration {
	if b.delay == 0 {
		b.delay = minAcceptDelay
	} else {
		b.delay *= 2
	}
	if b.delay > maxAcceptDelay {
		b.delay = maxAcceptDelay
	}
	return b.delay
}

func (b *acceptBackoff) reset() {
	b.delay = 0
}

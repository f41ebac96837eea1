package botapi

import "time"

const (
	baseDelay = 1 * time.Second
	maxDelay  = 60 * time.Second
)

// Backoff returns the reconnect delay after retry failed attempts:
// baseDelay * 2^retry, capped at maxDelay.
func Backoff(retry int) time.Duration {
	if retry < 0 {
		return baseDelay
	}
	// 2^30 seconds is far past maxDelay.
	if retry > 30 {
		return maxDelay
	}
	d := baseDelay * time.Duration(1<<retry)
	if d > maxDelay {
		return maxDelay
	}
	return d
}

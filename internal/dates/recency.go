package dates

import "time"

// WithinMaxAge reports whether candidate is at most maxAge older than now.
// Future candidates always pass; only staleness is bounded.
func WithinMaxAge(now, candidate time.Time, maxAge time.Duration) bool {
	return now.Sub(candidate) <= maxAge
}

// IsWithinMaxAge is WithinMaxAge over canonical strings and a limit in seconds.
func IsWithinMaxAge(now, candidate string, maxAgeSeconds int64) (bool, error) {
	n, err := ParseCanonical(now)
	if err != nil {
		return false, err
	}
	c, err := ParseCanonical(candidate)
	if err != nil {
		return false, err
	}
	return WithinMaxAge(n, c, time.Duration(maxAgeSeconds)*time.Second), nil
}

// Package dates normalizes loosely formatted feed timestamps into a canonical UTC form
// and answers recency questions against it.
package dates

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/samvad-hq/samvad-feed-sampler/internal/domain"
)

// CanonicalLayout is the normalized representation: UTC, second precision, no offset.
// Values in this form sort lexicographically in time order.
const CanonicalLayout = "2006-01-02 15:04:05"

// ISO8601Layout is used for emitted item timestamps.
const ISO8601Layout = "2006-01-02T15:04:05.000000Z"

var (
	// MinTime and MaxTime bound the default snapshot window.
	MinTime = time.Date(1000, time.January, 1, 0, 0, 1, 0, time.UTC)
	MaxTime = time.Date(2100, time.January, 1, 0, 0, 1, 0, time.UTC)
)

// Parse reads a free-form date (RFC822, RFC1123, ISO-8601, ...) and returns it in UTC
// truncated to the second. Fuzzy matching is not attempted.
func Parse(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", domain.ErrDateParse)
	}

	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", domain.ErrDateParse, raw, err)
	}
	return t.UTC().Truncate(time.Second), nil
}

// Normalize parses raw and formats it in CanonicalLayout.
func Normalize(raw string) (string, error) {
	t, err := Parse(raw)
	if err != nil {
		return "", err
	}
	return Format(t), nil
}

// Format renders t in CanonicalLayout.
func Format(t time.Time) string {
	return t.UTC().Format(CanonicalLayout)
}

// ParseCanonical reads a value produced by Format.
func ParseCanonical(s string) (time.Time, error) {
	t, err := time.ParseInLocation(CanonicalLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not canonical: %v", domain.ErrDateParse, s, err)
	}
	return t, nil
}

// ISO8601 renders t as an ISO-8601 UTC string with fractional seconds.
func ISO8601(t time.Time) string {
	return t.UTC().Format(ISO8601Layout)
}

// Window is an inclusive publish-date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// DefaultWindow spans effectively all time.
func DefaultWindow() Window {
	return Window{Start: MinTime, End: MaxTime}
}

// Contains reports whether t lies in [Start, End].
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

package gracefulpage

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ParseRetryAfter converts a Retry-After header value into a delay.
// It reports false when the value carries no usable hint.
func ParseRetryAfter(value string) (time.Duration, bool) {
	return ParseRetryAfterAt(value, time.Now())
}

// ParseRetryAfterAt is ParseRetryAfter evaluated against now.
//
// A numeric value is read as seconds, e.g. "120" or "0.5". An HTTP-date such
// as "Wed, 21 Oct 2015 07:28:00 GMT" yields the distance from now, which is
// negative for a date in the past.
//
// A zero result is reported as no hint, for both forms: "0" and a date equal
// to now (at millisecond precision) behave exactly like a missing header.
func ParseRetryAfterAt(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		if seconds == 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return 0, false
		}
		return time.Duration(seconds * float64(time.Second)).Truncate(time.Millisecond), true
	}

	target, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}
	diff := target.Sub(now).Truncate(time.Millisecond)
	if diff == 0 {
		return 0, false
	}
	return diff, true
}

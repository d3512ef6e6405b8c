package gracefulpage

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRetryAfter_Seconds(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "whole seconds", value: "120", want: 120 * time.Second},
		{name: "one second", value: "1", want: time.Second},
		{name: "surrounding spaces", value: " 3 ", want: 3 * time.Second},
		{name: "fractional seconds", value: "0.25", want: 250 * time.Millisecond},
		{name: "negative passes through", value: "-2", want: -2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRetryAfter(tt.value)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRetryAfter_NoHint(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "empty", value: ""},
		{name: "blank", value: "   "},
		{name: "garbage", value: "soon"},
		{name: "not a number", value: "NaN"},
		{name: "infinite", value: "Infinity"},
		// "0" means "retry now" in HTTP, but it is deliberately treated the
		// same as a missing header.
		{name: "zero seconds is no hint", value: "0"},
		{name: "zero with decimals is no hint", value: "0.000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRetryAfter(tt.value)
			assert.False(t, ok)
			assert.Zero(t, got)
		})
	}
}

func TestParseRetryAfter_HTTPDate(t *testing.T) {
	now := time.Date(2015, time.October, 21, 7, 28, 0, 0, time.UTC)

	t.Run("future date", func(t *testing.T) {
		got, ok := ParseRetryAfterAt("Wed, 21 Oct 2015 07:28:30 GMT", now)
		assert.True(t, ok)
		assert.Equal(t, 30*time.Second, got)
	})

	t.Run("past date is negative", func(t *testing.T) {
		got, ok := ParseRetryAfterAt("Wed, 21 Oct 2015 07:27:00 GMT", now)
		assert.True(t, ok)
		assert.Equal(t, -time.Minute, got)
	})

	t.Run("RFC 850 form", func(t *testing.T) {
		got, ok := ParseRetryAfterAt("Wednesday, 21-Oct-15 07:29:00 GMT", now)
		assert.True(t, ok)
		assert.Equal(t, time.Minute, got)
	})

	t.Run("ANSI C form", func(t *testing.T) {
		got, ok := ParseRetryAfterAt("Wed Oct 21 07:28:10 2015", now)
		assert.True(t, ok)
		assert.Equal(t, 10*time.Second, got)
	})

	// A date equal to now yields a zero delay, which is reported as no hint,
	// same as "0".
	t.Run("date equal to now is no hint", func(t *testing.T) {
		got, ok := ParseRetryAfterAt("Wed, 21 Oct 2015 07:28:00 GMT", now)
		assert.False(t, ok)
		assert.Zero(t, got)
	})

	t.Run("sub-millisecond distance is no hint", func(t *testing.T) {
		_, ok := ParseRetryAfterAt("Wed, 21 Oct 2015 07:28:00 GMT", now.Add(-500*time.Microsecond))
		assert.False(t, ok)
	})
}

func TestParseRetryAfter_AgainstWallClock(t *testing.T) {
	target := time.Now().Add(10 * time.Second).UTC()
	got, ok := ParseRetryAfter(target.Format(http.TimeFormat))
	assert.True(t, ok)
	// http.TimeFormat drops sub-second precision.
	assert.InDelta(t, float64(10*time.Second), float64(got), float64(1500*time.Millisecond))
}

package testserver

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServer_HomePage(t *testing.T) {
	s := New()
	defer s.Close()

	resp, body := get(t, s.URL("/"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "home page", body)
}

func TestServer_Delay(t *testing.T) {
	s := New()
	defer s.Close()

	_, body := get(t, s.URL("/set-delay?ms=30"))
	assert.Equal(t, "updated delay interval", body)

	start := time.Now()
	_, body = get(t, s.URL("/make-delay"))
	assert.Equal(t, "delayed content", body)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	resp, _ := get(t, s.URL("/set-delay?ms=abc"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_RateLimit(t *testing.T) {
	s := New()
	defer s.Close()

	s.ArmRateLimit(2, "1")

	for i := 0; i < 2; i++ {
		resp, _ := get(t, s.URL("/rate-limit"))
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	}

	resp, body := get(t, s.URL("/rate-limit"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "rate limit lifted", body)
	assert.Equal(t, 3, s.RateLimitHits())
}

func TestServer_RateLimitWithoutRetryAfter(t *testing.T) {
	s := New()
	defer s.Close()

	s.ArmRateLimit(1, "")
	resp, _ := get(t, s.URL("/rate-limit"))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Retry-After"))
}

// Package testserver serves pages that misbehave on request: slow responses
// and 429 rate limiting. Browser integration tests navigate to it.
package testserver

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// Server is an httptest.Server with adjustable misbehaviour.
type Server struct {
	*httptest.Server

	mu                 sync.Mutex
	delay              time.Duration
	rateLimitRemaining int
	retryAfter         string
	rateLimitHits      int
}

// New starts a Server on a random local port. Call Close when done.
func New() *Server {
	s := &Server{}
	s.Server = httptest.NewServer(s.Handler())
	return s
}

// Handler returns the routes without starting a listener.
//
//	GET /                 "home page"
//	GET /set-delay?ms=N   sets the /make-delay latency
//	GET /make-delay       "delayed content" after the configured latency
//	GET /rate-limit       429 while armed (see ArmRateLimit), then "rate limit lifted"
//	GET /links            a page with a few anchors
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "home page")
	})
	r.Get("/set-delay", s.handleSetDelay)
	r.Get("/make-delay", s.handleMakeDelay)
	r.Get("/rate-limit", s.handleRateLimit)
	r.Get("/links", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, linksPage)
	})
	return r
}

// URL joins path onto the server's base URL.
func (s *Server) URL(path string) string {
	return s.Server.URL + path
}

// SetDelay sets the /make-delay latency.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// ArmRateLimit makes the next times requests to /rate-limit answer 429,
// with the given Retry-After value when it is non-empty.
func (s *Server) ArmRateLimit(times int, retryAfter string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateLimitRemaining = times
	s.retryAfter = retryAfter
	s.rateLimitHits = 0
}

// RateLimitHits counts /rate-limit requests since the last ArmRateLimit.
func (s *Server) RateLimitHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rateLimitHits
}

func (s *Server) handleSetDelay(w http.ResponseWriter, r *http.Request) {
	ms, err := strconv.Atoi(r.URL.Query().Get("ms"))
	if err != nil || ms < 0 {
		http.Error(w, "ms must be a non-negative integer", http.StatusBadRequest)
		return
	}
	s.SetDelay(time.Duration(ms) * time.Millisecond)
	fmt.Fprint(w, "updated delay interval")
}

func (s *Server) handleMakeDelay(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delay := s.delay
	s.mu.Unlock()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		fmt.Fprint(w, "delayed content")
	case <-r.Context().Done():
	}
}

func (s *Server) handleRateLimit(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.rateLimitHits++
	limited := s.rateLimitRemaining > 0
	if limited {
		s.rateLimitRemaining--
	}
	retryAfter := s.retryAfter
	s.mu.Unlock()

	if limited {
		if retryAfter != "" {
			w.Header().Set("Retry-After", retryAfter)
		}
		http.Error(w, "slow down", http.StatusTooManyRequests)
		return
	}
	fmt.Fprint(w, "rate limit lifted")
}

const linksPage = `<!DOCTYPE html>
<html>
<head><title>Links</title></head>
<body>
<a href="/">home</a>
<a href="/make-delay">slow</a>
<a href="https://example.net/about">about</a>
<a>no href</a>
</body>
</html>`

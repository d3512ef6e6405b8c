package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/gracefulpage/pkg/gracefulpage"
)

func TestRecorder_OnError(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := NewRecorder(reg)

	var forwarded []error
	onError := recorder.OnError(func(err error) { forwarded = append(forwarded, err) })

	timeout := errors.New("Timeout 30000ms exceeded.")
	crash := errors.New("page crashed")
	onError(timeout)
	onError(timeout)
	onError(crash)

	assert.Equal(t, []error{timeout, timeout, crash}, forwarded)
	assert.Equal(t, 2.0, testutil.ToFloat64(recorder.recovered.WithLabelValues("timeout", "retry-in-place")))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.recovered.WithLabelValues("crashed", "retry-after-restart")))
}

func TestRecorder_OnErrorWithoutNext(t *testing.T) {
	recorder := NewRecorder(prometheus.NewRegistry())

	recorder.OnError(nil)(errors.New("net::ERR_CONNECTION_RESET"))

	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.recovered.WithLabelValues("network", "retry-in-place")))
}

func TestRecorder_ObserveNavigation(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := NewRecorder(reg)

	recorder.ObserveNavigation(100*time.Millisecond, nil)
	recorder.ObserveNavigation(time.Second, &gracefulpage.GotoError{Message: "Too Many Requests"})
	recorder.ObserveNavigation(time.Second, errors.New("boom"))

	assert.Equal(t, 3, testutil.CollectAndCount(recorder.navigations))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", outcome(nil))
	assert.Equal(t, "rate_limited", outcome(&gracefulpage.GotoError{}))
	assert.Equal(t, "failure", outcome(errors.New("x")))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := NewRecorder(reg)
	recorder.OnError(nil)(errors.New("page crashed"))

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `gracefulpage_recovered_errors_total{action="retry-after-restart",kind="crashed"} 1`)
}

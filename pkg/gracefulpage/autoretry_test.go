package gracefulpage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errReclaimed = errors.New("Error: The object has been collected to prevent unbounded heap growth.")

func TestAutoRetryWhenFailed_RestartsOnMemoryReclaimed(t *testing.T) {
	provider := newFakeProvider(nil)
	page, spy := newTestPage(provider)
	ctx := context.Background()

	runs := 0
	start := time.Now()
	title, err := AutoRetryWhenFailed(ctx, page, func(ctx context.Context) (string, error) {
		runs++
		if _, err := page.Goto(ctx, "http://localhost/"); err != nil {
			return "", err
		}
		if runs == 1 {
			return "", errReclaimed
		}
		return page.Title(ctx)
	})

	require.NoError(t, err)
	assert.Equal(t, "Home", title)
	assert.Equal(t, 2, runs)
	assert.GreaterOrEqual(t, time.Since(start), testInterval)
	assert.Equal(t, 1, spy.count())
	assert.ErrorIs(t, spy.last(), errReclaimed)

	require.Equal(t, 2, provider.tabCount())
	assert.True(t, provider.tab(0).isClosed())
}

func TestAutoRetryWhenFailed_PropagatesOtherErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "plain error", err: errors.New("element not found")},
		// Navigation-level kinds are Goto's business, not the wrapper's.
		{name: "timeout", err: errors.New("Timeout 100ms exceeded.")},
		{name: "page crashed", err: errors.New("Page crashed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newFakeProvider(nil)
			page, spy := newTestPage(provider)

			runs := 0
			err := page.AutoRetryWhenFailed(context.Background(), func(ctx context.Context) error {
				runs++
				return tt.err
			})

			assert.Same(t, tt.err, err)
			assert.Equal(t, 1, runs)
			assert.Equal(t, 0, spy.count())
			assert.Equal(t, 0, provider.tabCount())
		})
	}
}

func TestAutoRetryWhenFailed_ReturnsFirstSuccess(t *testing.T) {
	page, spy := newTestPage(newFakeProvider(nil))

	value, err := AutoRetryWhenFailed(context.Background(), page, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.Equal(t, 0, spy.count())
}

func TestAutoRetryWhenFailed_ZeroValueOnError(t *testing.T) {
	page, _ := newTestPage(newFakeProvider(nil))
	boom := errors.New("boom")

	value, err := AutoRetryWhenFailed(context.Background(), page, func(ctx context.Context) ([]string, error) {
		return []string{"partial"}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, value)
}

func TestAutoRetryWhenFailed_StopsWhenContextIsCancelled(t *testing.T) {
	page, spy := newTestPage(newFakeProvider(nil))

	ctx, cancel := context.WithCancel(context.Background())
	runs := 0
	err := page.AutoRetryWhenFailed(ctx, func(ctx context.Context) error {
		runs++
		if runs == 3 {
			cancel()
		}
		return errReclaimed
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, runs)
	assert.GreaterOrEqual(t, spy.count(), 2)
}

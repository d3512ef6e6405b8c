package gracefulpage

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// recoveryLoop drives one Goto or AutoRetryWhenFailed call. It is the
// retry.Backoff for that call: every attempt that asks to be retried sets the
// next wait, and the loop never gives up on its own.
type recoveryLoop struct {
	page *Page
	wait time.Duration
}

// Next implements retry.Backoff.
func (l *recoveryLoop) Next() (time.Duration, bool) {
	return l.wait, false
}

// recover performs the recovery action for err and reports whether the loop
// should go on. A propagated error is returned unchanged.
func (l *recoveryLoop) recover(ctx context.Context, kind ErrorKind, err error) error {
	switch kind.Action() {
	case ActionRetry:
		l.page.onError(err)
	case ActionRestart:
		l.page.onError(err)
		if _, restartErr := l.page.Restart(ctx); restartErr != nil {
			return restartErr
		}
	default:
		return err
	}
	return l.backoff(l.page.retryInterval, err)
}

// backoff retries after d without any other recovery action.
func (l *recoveryLoop) backoff(d time.Duration, err error) error {
	l.wait = d
	return retry.RetryableError(err)
}

// run calls attempt until it returns nil or a non-retryable error, or ctx is done.
func (p *Page) run(ctx context.Context, attempt func(ctx context.Context, l *recoveryLoop) error) error {
	l := &recoveryLoop{page: p, wait: p.retryInterval}
	return retry.Do(ctx, l, func(ctx context.Context) error {
		return attempt(ctx, l)
	})
}

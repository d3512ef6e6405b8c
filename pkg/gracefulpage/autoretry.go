package gracefulpage

import "context"

// AutoRetryWhenFailed runs op, and runs it again from scratch whenever it
// fails because the engine reclaimed an object under memory pressure. The tab
// is replaced and RetryInterval elapses before each new run. Other errors
// are returned unchanged.
//
// op should be safe to repeat as a whole, typically navigating and then
// reading the page.
func (p *Page) AutoRetryWhenFailed(ctx context.Context, op func(ctx context.Context) error) error {
	return p.run(ctx, func(ctx context.Context, l *recoveryLoop) error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		return l.recover(ctx, ClassifyOperation(err), err)
	})
}

// AutoRetryWhenFailed is the value-returning form of Page.AutoRetryWhenFailed.
func AutoRetryWhenFailed[T any](ctx context.Context, p *Page, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := p.AutoRetryWhenFailed(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

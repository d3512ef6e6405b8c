package gracefulpage

import (
	"context"
	"fmt"
	"net/http"
)

const defaultTooManyRequestsText = "Too Many Requests"

// rateLimitedError marks a 429 that is being waited out. It never reaches
// the caller or OnError.
type rateLimitedError struct {
	url string
}

func (e *rateLimitedError) Error() string {
	return fmt.Sprintf("rate limited while navigating to %s", e.url)
}

// Goto navigates the live tab to url, recovering from transient failures.
//
// Timeouts, interrupted navigations and transient network errors are retried
// on the same tab after RetryInterval. A crashed tab is replaced first. A 429
// response with a usable Retry-After is retried after the server's delay; a
// 429 without one fails with *GotoError. Any other error is returned as is.
//
// Options are merged over {WaitUntil: WaitUntilDOMContentLoaded}.
func (p *Page) Goto(ctx context.Context, url string, opts ...GotoOptions) (Response, error) {
	options := mergeGotoOptions(opts)

	var response Response
	err := p.run(ctx, func(ctx context.Context, l *recoveryLoop) error {
		tab, err := p.GetPage(ctx)
		if err != nil {
			return err
		}

		resp, err := tab.Goto(ctx, url, options)
		if err != nil {
			return l.recover(ctx, ClassifyNavigation(url, err), err)
		}

		if resp != nil && resp.Status() == http.StatusTooManyRequests {
			headerValue, err := resp.HeaderValue("Retry-After")
			if err != nil {
				return l.recover(ctx, ClassifyNavigation(url, err), err)
			}
			if delay, ok := ParseRetryAfter(headerValue); ok {
				return l.backoff(delay, &rateLimitedError{url: url})
			}

			statusText := resp.StatusText()
			if statusText == "" {
				statusText = defaultTooManyRequestsText
			}
			return &GotoError{
				Message: statusText,
				Details: GotoErrorDetails{URL: url, Options: options, Response: resp},
			}
		}

		response = resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// Package gracefulpage keeps browser navigation and page operations alive
// through the failures a long-running scraper or test suite hits routinely:
// navigation timeouts, network blips, crashed tabs, HTTP 429 rate limiting and
// engine objects reclaimed under memory pressure.
//
// # Page Lifecycle
//
// A Page owns at most one live Tab, opened lazily from its Provider:
//
//  1. GetPage opens the tab on first use; concurrent callers share one NewPage call
//  2. Restart closes the tab and opens a fresh one
//  3. Close closes the tab and leaves the Page empty; close errors go to OnError
//  4. Fork returns a new, empty Page with the same configuration
//
// # Recovery
//
// Goto loops until the navigation succeeds or fails for good:
//
//   - Timeouts, interrupted navigations and transient network errors: retry on the same tab
//   - Crashed tab: restart, then retry
//   - 429 with Retry-After: wait the server's delay, then retry
//   - 429 without a usable Retry-After: *GotoError
//   - Anything else: returned unchanged
//
// AutoRetryWhenFailed re-runs a whole operation when the engine reports that
// an object was collected to prevent unbounded heap growth.
//
// Neither loop has an attempt limit. They stop on success, on a non-retryable
// error, or when the context is done. Every recovered error is passed to
// Options.OnError.
//
// # Example Usage
//
//	page := gracefulpage.New(gracefulpage.Options{
//	    Provider:      provider,
//	    RetryInterval: 2 * time.Second,
//	})
//	defer page.Close(ctx)
//
//	links, err := gracefulpage.AutoRetryWhenFailed(ctx, page, func(ctx context.Context) (any, error) {
//	    if _, err := page.Goto(ctx, "https://example.net"); err != nil {
//	        return nil, err
//	    }
//	    return page.Evaluate(ctx, `() => Array.from(document.querySelectorAll("a"), a => a.href)`, nil)
//	})
package gracefulpage

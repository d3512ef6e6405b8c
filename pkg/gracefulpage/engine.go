package gracefulpage

import (
	"context"
	"time"
)

// Provider opens new browser tabs. A Playwright browser or browser context,
// or a chromedp browser, can all serve as a Provider (see pkg/browser).
type Provider interface {
	NewPage(ctx context.Context) (Tab, error)
}

// Response is the part of an HTTP navigation response the core inspects.
type Response interface {
	Status() int
	StatusText() string
	HeaderValue(name string) (string, error)
}

// Tab is a single controllable browser tab.
type Tab interface {
	// Goto navigates the tab. A nil Response with a nil error means the
	// navigation produced no HTTP response (e.g. about:blank or same-document
	// navigation).
	Goto(ctx context.Context, url string, opts GotoOptions) (Response, error)

	Evaluate(ctx context.Context, expression string, arg any) (any, error)
	WaitForSelector(ctx context.Context, selector string, opts SelectorOptions) error
	Fill(ctx context.Context, selector, value string, opts ActionOptions) error
	Click(ctx context.Context, selector string, opts ActionOptions) error
	Content(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	InnerHTML(ctx context.Context, selector string, opts ActionOptions) (string, error)
	InnerText(ctx context.Context, selector string, opts ActionOptions) (string, error)

	Close(ctx context.Context, opts CloseOptions) error
}

// WaitUntil names the navigation lifecycle event Goto waits for.
type WaitUntil string

// Valid WaitUntil values.
const (
	WaitUntilLoad             WaitUntil = "load"
	WaitUntilDOMContentLoaded WaitUntil = "domcontentloaded"
	WaitUntilNetworkIdle      WaitUntil = "networkidle"
	WaitUntilCommit           WaitUntil = "commit"
)

// GotoOptions configures a single navigation.
type GotoOptions struct {
	// WaitUntil defaults to WaitUntilDOMContentLoaded when empty
	WaitUntil WaitUntil

	// Timeout is the engine's per-navigation timeout (0 means engine default)
	Timeout time.Duration

	// Referer header value, if any
	Referer string
}

// SelectorOptions configures WaitForSelector.
type SelectorOptions struct {
	// State to wait for: "attached", "detached", "visible", "hidden"
	State string

	// Timeout (0 means engine default)
	Timeout time.Duration
}

// ActionOptions configures element-level passthroughs.
type ActionOptions struct {
	// Timeout (0 means engine default)
	Timeout time.Duration
}

// CloseOptions configures Tab.Close.
type CloseOptions struct {
	// RunBeforeUnload runs the page's beforeunload handlers
	RunBeforeUnload bool

	// Reason is reported to operations interrupted by the close
	Reason string
}

// Valid reports whether w is one of the known lifecycle events.
func (w WaitUntil) Valid() bool {
	switch w {
	case WaitUntilLoad, WaitUntilDOMContentLoaded, WaitUntilNetworkIdle, WaitUntilCommit:
		return true
	}
	return false
}

// mergeGotoOptions lays caller options over the default WaitUntil.
// Later options win field by field; empty fields do not override.
func mergeGotoOptions(opts []GotoOptions) GotoOptions {
	merged := GotoOptions{WaitUntil: WaitUntilDOMContentLoaded}
	for _, o := range opts {
		if o.WaitUntil != "" {
			merged.WaitUntil = o.WaitUntil
		}
		if o.Timeout != 0 {
			merged.Timeout = o.Timeout
		}
		if o.Referer != "" {
			merged.Referer = o.Referer
		}
	}
	return merged
}

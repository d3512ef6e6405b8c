package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/entrhq/gracefulpage/pkg/gracefulpage"
)

// errTabClosed mirrors the message Playwright uses for operations on a closed page.
var errTabClosed = errors.New("target page, context or browser has been closed")

// ChromeProvider opens tabs in a Chrome instance driven over the DevTools protocol.
type ChromeProvider struct {
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	timeout       time.Duration
}

// ExecAllocatorOptions translates launch options into chromedp allocator options.
func ExecAllocatorOptions(opts LaunchOptions) []chromedp.ExecAllocatorOption {
	opts = opts.withDefaults()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(opts.Viewport.Width, opts.Viewport.Height),
	)
	if !opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	return allocOpts
}

// NewChromeProvider starts Chrome and returns a provider opening tabs in it.
// The browser lives until Close or until ctx is cancelled.
func NewChromeProvider(ctx context.Context, opts LaunchOptions) (*ChromeProvider, error) {
	opts = opts.withDefaults()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, ExecAllocatorOptions(opts)...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &ChromeProvider{
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		timeout:       opts.Timeout,
	}, nil
}

// NewPage implements gracefulpage.Provider.
func (p *ChromeProvider) NewPage(ctx context.Context) (gracefulpage.Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tabCtx, cancelTab := chromedp.NewContext(p.browserCtx)
	aborted, abort := context.WithCancel(context.Background())
	tab := &ChromeTab{
		ctx:     tabCtx,
		cancel:  cancelTab,
		aborted: aborted,
		abort:   abort,
		timeout: p.timeout,
	}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if _, ok := ev.(*inspector.EventTargetCrashed); ok {
			tab.crashed.Store(true)
			tab.abort()
		}
	})

	// The first Run creates the target and must use the tab context itself.
	stop := context.AfterFunc(ctx, cancelTab)
	err := chromedp.Run(tabCtx, inspector.Enable())
	stop()
	if err != nil {
		abort()
		cancelTab()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return tab, nil
}

// Close shuts the browser down.
func (p *ChromeProvider) Close() error {
	err := chromedp.Cancel(p.browserCtx)
	p.cancelBrowser()
	p.cancelAlloc()
	return err
}

// ChromeTab adapts a chromedp target to gracefulpage.Tab. Selectors are CSS.
type ChromeTab struct {
	ctx     context.Context
	cancel  context.CancelFunc
	aborted context.Context
	abort   context.CancelFunc
	crashed atomic.Bool
	timeout time.Duration
}

// run executes actions bounded by the tab lifetime, the caller's ctx and the
// per-call timeout, and translates failures into engine-style messages.
func (t *ChromeTab) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	_, err := t.runResponse(ctx, timeout, false, actions...)
	return err
}

func (t *ChromeTab) runResponse(ctx context.Context, timeout time.Duration, navigation bool, actions ...chromedp.Action) (*network.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.crashed.Load() {
		return nil, fmt.Errorf("page crashed: %w", errTabClosed)
	}
	if t.ctx.Err() != nil {
		return nil, errTabClosed
	}

	if timeout <= 0 {
		timeout = t.timeout
	}

	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stopCaller := context.AfterFunc(ctx, cancel)
	defer stopCaller()
	stopAbort := context.AfterFunc(t.aborted, cancel)
	defer stopAbort()

	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, timeout)
		defer cancelTimeout()
	}

	var (
		resp *network.Response
		err  error
	)
	if navigation {
		resp, err = chromedp.RunResponse(runCtx, actions...)
	} else {
		err = chromedp.Run(runCtx, actions...)
	}
	if err == nil {
		return resp, nil
	}

	switch {
	case t.crashed.Load():
		return nil, fmt.Errorf("page crashed: %w", err)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case t.ctx.Err() != nil:
		return nil, errTabClosed
	case timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return nil, fmt.Errorf("Timeout %dms exceeded.", timeout.Milliseconds())
	}
	return nil, err
}

// Goto implements gracefulpage.Tab. WaitUntil and Referer are not supported
// by chromedp's navigation and are ignored; navigation waits for load.
func (t *ChromeTab) Goto(ctx context.Context, url string, opts gracefulpage.GotoOptions) (gracefulpage.Response, error) {
	resp, err := t.runResponse(ctx, opts.Timeout, true, chromedp.Navigate(url))
	if err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}
	if resp == nil {
		return nil, nil
	}
	return &chromeResponse{resp: resp}, nil
}

// Evaluate implements gracefulpage.Tab. A function expression is called with
// arg; any other expression is evaluated as is. Promises are awaited and the
// result comes back through JSON.
func (t *ChromeTab) Evaluate(ctx context.Context, expression string, arg any) (any, error) {
	script, err := evaluateScript(expression, arg)
	if err != nil {
		return nil, err
	}

	var encoded string
	awaitPromise := func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}
	if err := t.run(ctx, 0, chromedp.Evaluate(script, &encoded, awaitPromise)); err != nil {
		return nil, err
	}

	var result any
	if err := json.Unmarshal([]byte(encoded), &result); err != nil {
		return nil, fmt.Errorf("failed to decode evaluation result: %w", err)
	}
	return result, nil
}

func evaluateScript(expression string, arg any) (string, error) {
	encodedArg, err := json.Marshal(arg)
	if err != nil {
		return "", fmt.Errorf("failed to encode argument: %w", err)
	}
	return fmt.Sprintf(`(async () => {
	const target = (%s);
	const value = typeof target === "function" ? await target(%s) : await target;
	return JSON.stringify(value === undefined ? null : value);
})()`, strings.TrimSpace(expression), encodedArg), nil
}

// WaitForSelector implements gracefulpage.Tab.
func (t *ChromeTab) WaitForSelector(ctx context.Context, selector string, opts gracefulpage.SelectorOptions) error {
	var action chromedp.Action
	switch opts.State {
	case "", "visible":
		action = chromedp.WaitVisible(selector, chromedp.ByQuery)
	case "attached":
		action = chromedp.WaitReady(selector, chromedp.ByQuery)
	case "hidden":
		action = chromedp.WaitNotVisible(selector, chromedp.ByQuery)
	case "detached":
		action = chromedp.WaitNotPresent(selector, chromedp.ByQuery)
	default:
		return fmt.Errorf("unsupported selector state: %s", opts.State)
	}
	if err := t.run(ctx, opts.Timeout, action); err != nil {
		return fmt.Errorf("wait failed: %w", err)
	}
	return nil
}

// Fill implements gracefulpage.Tab.
func (t *ChromeTab) Fill(ctx context.Context, selector, value string, opts gracefulpage.ActionOptions) error {
	err := t.run(ctx, opts.Timeout,
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

// Click implements gracefulpage.Tab.
func (t *ChromeTab) Click(ctx context.Context, selector string, opts gracefulpage.ActionOptions) error {
	if err := t.run(ctx, opts.Timeout, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

// Content implements gracefulpage.Tab.
func (t *ChromeTab) Content(ctx context.Context) (string, error) {
	var html string
	err := t.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// Title implements gracefulpage.Tab.
func (t *ChromeTab) Title(ctx context.Context) (string, error) {
	var title string
	err := t.run(ctx, 0, chromedp.Title(&title))
	return title, err
}

// InnerHTML implements gracefulpage.Tab.
func (t *ChromeTab) InnerHTML(ctx context.Context, selector string, opts gracefulpage.ActionOptions) (string, error) {
	var html string
	err := t.run(ctx, opts.Timeout, chromedp.InnerHTML(selector, &html, chromedp.ByQuery))
	return html, err
}

// InnerText implements gracefulpage.Tab.
func (t *ChromeTab) InnerText(ctx context.Context, selector string, opts gracefulpage.ActionOptions) (string, error) {
	var text string
	err := t.run(ctx, opts.Timeout, chromedp.Text(selector, &text, chromedp.ByQuery))
	return text, err
}

// Close implements gracefulpage.Tab. Before-unload handlers are not run.
func (t *ChromeTab) Close(ctx context.Context, opts gracefulpage.CloseOptions) error {
	defer t.abort()
	if t.ctx.Err() != nil {
		return nil
	}
	err := chromedp.Cancel(t.ctx)
	t.cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// chromeResponse adapts a DevTools network response to gracefulpage.Response.
type chromeResponse struct {
	resp *network.Response
}

func (r *chromeResponse) Status() int {
	return int(r.resp.Status)
}

func (r *chromeResponse) StatusText() string {
	return r.resp.StatusText
}

// HeaderValue looks name up case-insensitively. Chrome joins repeated
// headers with newlines; they are returned comma-separated.
func (r *chromeResponse) HeaderValue(name string) (string, error) {
	for key, value := range r.resp.Headers {
		if strings.EqualFold(key, name) {
			return strings.ReplaceAll(fmt.Sprint(value), "\n", ", "), nil
		}
	}
	return "", nil
}

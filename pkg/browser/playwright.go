package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/gracefulpage/pkg/gracefulpage"
)

// Provider opens Playwright pages for a gracefulpage.Page.
type Provider struct {
	open           func() (playwright.Page, error)
	defaultTimeout time.Duration
}

// NewBrowserProvider opens every page in its own new context of b.
func NewBrowserProvider(b playwright.Browser) *Provider {
	return &Provider{open: func() (playwright.Page, error) { return b.NewPage() }}
}

// NewContextProvider opens pages in c, sharing its cookies and storage.
func NewContextProvider(c playwright.BrowserContext) *Provider {
	return &Provider{open: c.NewPage}
}

// WithDefaultTimeout sets the default timeout applied to every new page.
func (p *Provider) WithDefaultTimeout(d time.Duration) *Provider {
	p.defaultTimeout = d
	return p
}

// NewPage implements gracefulpage.Provider.
func (p *Provider) NewPage(ctx context.Context) (gracefulpage.Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := p.open()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	if p.defaultTimeout > 0 {
		page.SetDefaultTimeout(milliseconds(p.defaultTimeout))
	}
	return NewTab(page), nil
}

// Tab adapts a playwright.Page to gracefulpage.Tab.
type Tab struct {
	page playwright.Page
}

// NewTab wraps page. Use it to hand an already open page to gracefulpage.Options.Page.
func NewTab(page playwright.Page) *Tab {
	return &Tab{page: page}
}

// Page returns the underlying Playwright page.
func (t *Tab) Page() playwright.Page {
	return t.page
}

// timeout returns the per-call timeout in Playwright's unit, falling back to
// the time left on ctx. Nil means the page default.
func timeout(ctx context.Context, d time.Duration) *float64 {
	if d <= 0 {
		deadline, ok := ctx.Deadline()
		if !ok {
			return nil
		}
		d = time.Until(deadline)
		if d <= 0 {
			d = time.Millisecond
		}
	}
	return playwright.Float(milliseconds(d))
}

// Goto implements gracefulpage.Tab.
func (t *Tab) Goto(ctx context.Context, url string, opts gracefulpage.GotoOptions) (gracefulpage.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	playwrightOpts := playwright.PageGotoOptions{Timeout: timeout(ctx, opts.Timeout)}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		playwrightOpts.WaitUntil = &waitUntil
	}
	if opts.Referer != "" {
		playwrightOpts.Referer = playwright.String(opts.Referer)
	}

	resp, err := t.page.Goto(url, playwrightOpts)
	if err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}
	if resp == nil {
		return nil, nil
	}
	return resp, nil
}

// Evaluate implements gracefulpage.Tab.
func (t *Tab) Evaluate(ctx context.Context, expression string, arg any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if arg == nil {
		return t.page.Evaluate(expression)
	}
	return t.page.Evaluate(expression, arg)
}

// WaitForSelector implements gracefulpage.Tab.
func (t *Tab) WaitForSelector(ctx context.Context, selector string, opts gracefulpage.SelectorOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	playwrightOpts := playwright.PageWaitForSelectorOptions{Timeout: timeout(ctx, opts.Timeout)}
	if opts.State != "" {
		state := playwright.WaitForSelectorState(opts.State)
		playwrightOpts.State = &state
	}
	if _, err := t.page.WaitForSelector(selector, playwrightOpts); err != nil {
		return fmt.Errorf("wait failed: %w", err)
	}
	return nil
}

// Fill implements gracefulpage.Tab.
func (t *Tab) Fill(ctx context.Context, selector, value string, opts gracefulpage.ActionOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.page.Fill(selector, value, playwright.PageFillOptions{Timeout: timeout(ctx, opts.Timeout)}); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

// Click implements gracefulpage.Tab.
func (t *Tab) Click(ctx context.Context, selector string, opts gracefulpage.ActionOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.page.Click(selector, playwright.PageClickOptions{Timeout: timeout(ctx, opts.Timeout)}); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

// Content implements gracefulpage.Tab.
func (t *Tab) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return t.page.Content()
}

// Title implements gracefulpage.Tab.
func (t *Tab) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return t.page.Title()
}

// InnerHTML implements gracefulpage.Tab.
func (t *Tab) InnerHTML(ctx context.Context, selector string, opts gracefulpage.ActionOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return t.page.InnerHTML(selector, playwright.PageInnerHTMLOptions{Timeout: timeout(ctx, opts.Timeout)})
}

// InnerText implements gracefulpage.Tab.
func (t *Tab) InnerText(ctx context.Context, selector string, opts gracefulpage.ActionOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return t.page.InnerText(selector, playwright.PageInnerTextOptions{Timeout: timeout(ctx, opts.Timeout)})
}

// Close implements gracefulpage.Tab.
func (t *Tab) Close(ctx context.Context, opts gracefulpage.CloseOptions) error {
	playwrightOpts := playwright.PageCloseOptions{}
	if opts.RunBeforeUnload {
		playwrightOpts.RunBeforeUnload = playwright.Bool(true)
	}
	if opts.Reason != "" {
		playwrightOpts.Reason = playwright.String(opts.Reason)
	}
	return t.page.Close(playwrightOpts)
}

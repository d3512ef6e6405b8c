package gracefulpage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/gracefulpage/pkg/logging"
)

// DefaultRetryInterval is the pause between recovery attempts when
// Options.RetryInterval is unset.
const DefaultRetryInterval = 5 * time.Second

// Options configures a Page.
type Options struct {
	// Provider opens tabs. Required.
	Provider Provider

	// Page is an already open tab to adopt. Optional.
	Page Tab

	// RetryInterval between recovery attempts (default 5s)
	RetryInterval time.Duration

	// OnError receives every error the Page recovers from, and errors raised
	// while closing. Defaults to logging on stderr. It runs inline in the
	// retry loop and must not block.
	OnError func(error)
}

type slotState int

const (
	slotEmpty slotState = iota
	slotCreating
	slotReady
)

// creation is a NewPage call in flight. done is closed once tab and err are set.
type creation struct {
	done chan struct{}
	tab  Tab
	err  error
}

// Page owns at most one live tab and recovers navigations and operations on it.
// It is safe for concurrent use, though concurrent operations on one Page are
// not ordered relative to each other.
type Page struct {
	id            string
	provider      Provider
	retryInterval time.Duration
	onError       func(error)

	mu       sync.Mutex
	state    slotState
	creating *creation
	tab      Tab
}

var (
	defaultLoggerOnce sync.Once
	defaultLogger     *logging.Logger
)

func defaultOnError(id string) func(error) {
	defaultLoggerOnce.Do(func() {
		defaultLogger = logging.NewStderrLogger("gracefulpage")
	})
	return defaultLogger.ErrorHandler("page " + id)
}

// New creates a Page. No tab is opened until first use, unless opts.Page is set.
func New(opts Options) *Page {
	p := &Page{
		id:            uuid.New().String(),
		provider:      opts.Provider,
		retryInterval: opts.RetryInterval,
		onError:       opts.OnError,
	}
	if p.retryInterval <= 0 {
		p.retryInterval = DefaultRetryInterval
	}
	if p.onError == nil {
		p.onError = defaultOnError(p.id)
	}
	if opts.Page != nil {
		p.state = slotReady
		p.tab = opts.Page
	}
	return p
}

// Fork returns a Page sharing this one's configuration but no tab.
func (p *Page) Fork() *Page {
	return New(Options{
		Provider:      p.provider,
		RetryInterval: p.retryInterval,
		OnError:       p.onError,
	})
}

// ID identifies the Page in logs.
func (p *Page) ID() string {
	return p.id
}

// RetryInterval returns the effective retry interval.
func (p *Page) RetryInterval() time.Duration {
	return p.retryInterval
}

// OnError returns the effective error callback.
func (p *Page) OnError() func(error) {
	return p.onError
}

// GetPage returns the live tab, opening one if there is none. Concurrent
// callers share a single NewPage call. The tab is opened detached from the
// caller's cancellation: each caller stops waiting when its own ctx is done,
// and a tab that finishes opening after every caller gave up still becomes
// the live tab.
func (p *Page) GetPage(ctx context.Context) (Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	switch p.state {
	case slotReady:
		tab := p.tab
		p.mu.Unlock()
		return tab, nil
	case slotCreating:
		c := p.creating
		p.mu.Unlock()
		return c.wait(ctx)
	}

	if p.provider == nil {
		p.mu.Unlock()
		return nil, errors.New("gracefulpage: no provider configured")
	}

	c := &creation{done: make(chan struct{})}
	p.state = slotCreating
	p.creating = c
	p.mu.Unlock()

	go p.create(context.WithoutCancel(ctx), c)
	return c.wait(ctx)
}

// create opens a tab for c and settles the slot before waking the waiters.
func (p *Page) create(ctx context.Context, c *creation) {
	c.tab, c.err = p.provider.NewPage(ctx)

	p.mu.Lock()
	// A Close during creation has already taken c over; leave the slot alone.
	if p.creating == c {
		p.creating = nil
		if c.err != nil {
			p.state = slotEmpty
		} else {
			p.state = slotReady
			p.tab = c.tab
		}
	}
	p.mu.Unlock()

	close(c.done)
}

func (c *creation) wait(ctx context.Context) (Tab, error) {
	select {
	case <-c.done:
		return c.tab, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close closes the live tab, if any, and empties the slot. The slot is
// emptied before the tab is closed, so a GetPage issued meanwhile opens a new
// tab. Errors are reported to OnError, never returned.
func (p *Page) Close(ctx context.Context, opts ...CloseOptions) {
	p.mu.Lock()
	state, tab, c := p.state, p.tab, p.creating
	p.state = slotEmpty
	p.tab = nil
	p.creating = nil
	p.mu.Unlock()

	switch state {
	case slotEmpty:
		return
	case slotCreating:
		// Wait for the creation regardless of ctx so its tab is not leaked.
		<-c.done
		if c.err != nil {
			p.onError(c.err)
			return
		}
		tab = c.tab
	}

	var closeOpts CloseOptions
	if len(opts) > 0 {
		closeOpts = opts[0]
	}
	if err := tab.Close(ctx, closeOpts); err != nil {
		p.onError(err)
	}
}

// Restart closes the live tab and opens a new one.
func (p *Page) Restart(ctx context.Context, opts ...CloseOptions) (Tab, error) {
	p.Close(ctx, opts...)
	return p.GetPage(ctx)
}

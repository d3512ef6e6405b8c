package browser

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Launcher owns a Playwright driver and the browsers it launched.
type Launcher struct {
	mu          sync.Mutex
	opts        LaunchOptions
	playwright  *playwright.Playwright
	browsers    []playwright.Browser
	contexts    []playwright.BrowserContext
	initialized bool
}

// NewLauncher creates a launcher. Call Start before NewProvider.
func NewLauncher(opts LaunchOptions) *Launcher {
	return &Launcher{opts: opts.withDefaults()}
}

// Options returns the launch options with defaults applied.
func (l *Launcher) Options() LaunchOptions {
	return l.opts
}

// Start runs the Playwright driver, installing it first when Install is set.
func (l *Launcher) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized {
		return nil
	}

	// Driver output would interleave with ours
	runOpts := &playwright.RunOptions{
		Browsers: []string{l.opts.Browser},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if l.opts.Install {
		if err := playwright.Install(runOpts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	l.playwright = pw
	l.initialized = true
	return nil
}

func (l *Launcher) browserType() (playwright.BrowserType, error) {
	switch l.opts.Browser {
	case BrowserChromium:
		return l.playwright.Chromium, nil
	case BrowserFirefox:
		return l.playwright.Firefox, nil
	case BrowserWebKit:
		return l.playwright.WebKit, nil
	default:
		return nil, fmt.Errorf("unsupported browser: %s", l.opts.Browser)
	}
}

// NewProvider launches a browser with a fresh context and returns a Provider
// opening pages in it. Every page shares the context's cookies.
func (l *Launcher) NewProvider() (*Provider, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		return nil, fmt.Errorf("launcher not started")
	}

	browserType, err := l.browserType()
	if err != nil {
		return nil, err
	}

	browser, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.opts.Headless),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  l.opts.Viewport.Width,
			Height: l.opts.Viewport.Height,
		},
	})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	l.browsers = append(l.browsers, browser)
	l.contexts = append(l.contexts, context)
	return NewContextProvider(context).WithDefaultTimeout(l.opts.Timeout), nil
}

// Shutdown closes every launched browser and stops the driver.
func (l *Launcher) Shutdown() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for _, c := range l.contexts {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, b := range l.browsers {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	l.contexts = nil
	l.browsers = nil

	if l.initialized && l.playwright != nil {
		if err := l.playwright.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		l.initialized = false
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}

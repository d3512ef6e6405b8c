package browser

import "time"

// Engine selects the automation backend.
type Engine string

const (
	// EnginePlaywright drives browsers through playwright-go
	EnginePlaywright Engine = "playwright"

	// EngineChromedp drives Chrome over the DevTools protocol through chromedp
	EngineChromedp Engine = "chromedp"
)

// Browser names understood by Playwright.
const (
	BrowserChromium = "chromium"
	BrowserFirefox  = "firefox"
	BrowserWebKit   = "webkit"
)

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// LaunchOptions configures a Launcher.
type LaunchOptions struct {
	// Browser is one of BrowserChromium, BrowserFirefox, BrowserWebKit
	Browser string

	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Install downloads the Playwright driver and browsers before starting
	Install bool

	// Viewport sets the initial viewport size of new contexts
	Viewport *Viewport

	// Timeout is the default timeout for page operations (0 means engine default)
	Timeout time.Duration

	// ExecPath overrides the browser binary (chromedp only)
	ExecPath string
}

// Default values for launch options
const (
	DefaultTimeout        = 30 * time.Second
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)

func (o LaunchOptions) withDefaults() LaunchOptions {
	if o.Browser == "" {
		o.Browser = BrowserChromium
	}
	if o.Viewport == nil {
		o.Viewport = &Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// milliseconds converts d to the float milliseconds Playwright expects.
func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

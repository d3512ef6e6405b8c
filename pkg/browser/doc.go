// Package browser connects gracefulpage to real browsers.
//
// Two engines are supported. Both satisfy gracefulpage.Provider and
// gracefulpage.Tab, so a gracefulpage.Page does not know which one it drives.
//
// # Playwright
//
// Launcher runs the Playwright driver and launches Chromium, Firefox or
// WebKit. NewProvider returns a Provider whose pages share one browser
// context:
//
//	launcher := browser.NewLauncher(browser.LaunchOptions{Headless: true})
//	if err := launcher.Start(); err != nil {
//	    return err
//	}
//	defer launcher.Shutdown()
//
//	provider, err := launcher.NewProvider()
//	if err != nil {
//	    return err
//	}
//	page := gracefulpage.New(gracefulpage.Options{Provider: provider})
//
// A Playwright browser or context obtained elsewhere can be wrapped with
// NewBrowserProvider or NewContextProvider, and an open page with NewTab.
//
// # Chromedp
//
// ChromeProvider drives Chrome directly over the DevTools protocol, without
// the Playwright driver. Errors are reported with the messages Playwright
// would use for the same failure ("Timeout 500ms exceeded.", "page crashed",
// Chromium net::ERR_* codes) so gracefulpage classifies them the same way.
//
// Selectors passed to ChromeTab are CSS selectors. GotoOptions.WaitUntil,
// GotoOptions.Referer and CloseOptions.RunBeforeUnload are ignored.
package browser

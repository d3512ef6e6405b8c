// Package main provides the gracefulpage command: it opens one or more URLs in
// a real browser, riding out timeouts, network blips, crashes and rate
// limiting, and prints what it finds.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entrhq/gracefulpage/pkg/browser"
	"github.com/entrhq/gracefulpage/pkg/config"
	"github.com/entrhq/gracefulpage/pkg/gracefulpage"
)

const version = "0.1.0"

// Extraction modes
const (
	ModeLinks = "links"
	ModeText  = "text"
	ModeTitle = "title"
	ModeHTML  = "html"
)

// Flags holds the command line. Zero values mean "not given" unless the flag
// was explicitly set; see applyFlags.
type Flags struct {
	ConfigPath    string
	Engine        string
	Browser       string
	Headful       bool
	Install       bool
	RetryInterval time.Duration
	Timeout       time.Duration
	WaitUntil     string
	Mode          string
	MetricsAddr   string
	LogDir        string
	Verbosity     string
	ShowVersion   bool
	URLs          []string

	set map[string]bool
}

func main() {
	flags := parseFlags(os.Args[1:])

	if flags.ShowVersion {
		fmt.Printf("gracefulpage v%s\n", version)
		return
	}

	cfg, err := buildConfig(flags)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Create context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if runErr := run(ctx, cfg, flags.Mode, flags.URLs, os.Stdout); runErr != nil {
		cancel()
		log.Fatalf("Application error: %v", runErr)
	}
}

// parseFlags parses command line flags
func parseFlags(args []string) *Flags {
	flags := &Flags{}
	fs := flag.NewFlagSet("gracefulpage", flag.ExitOnError)

	fs.StringVar(&flags.ConfigPath, "config", "", "Path to configuration file (YAML)")
	fs.StringVar(&flags.Engine, "engine", "", "Automation engine: playwright or chromedp")
	fs.StringVar(&flags.Browser, "browser", "", "Browser: chromium, firefox or webkit")
	fs.BoolVar(&flags.Headful, "headful", false, "Show the browser window")
	fs.BoolVar(&flags.Install, "install", false, "Install the Playwright driver and browsers first")
	fs.DurationVar(&flags.RetryInterval, "retry-interval", 0, "Pause between recovery attempts (default 5s)")
	fs.DurationVar(&flags.Timeout, "timeout", 0, "Per-navigation timeout (default 30s)")
	fs.StringVar(&flags.WaitUntil, "wait-until", "", "Navigation event: load, domcontentloaded, networkidle or commit")
	fs.StringVar(&flags.Mode, "extract", ModeLinks, "What to print: links, text, title or html")
	fs.StringVar(&flags.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	fs.StringVar(&flags.LogDir, "log-dir", "", "Directory for log files (default ~/.gracefulpage/logs)")
	fs.StringVar(&flags.Verbosity, "verbosity", "", "Log verbosity: quiet, normal, verbose or debug")
	fs.BoolVar(&flags.ShowVersion, "version", false, "Show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "gracefulpage - resilient page fetching\n\n")
		fmt.Fprintf(os.Stderr, "Usage: gracefulpage [options] URL...\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  gracefulpage https://example.com\n")
		fmt.Fprintf(os.Stderr, "  gracefulpage -extract text -timeout 10s https://example.com https://example.org\n")
		fmt.Fprintf(os.Stderr, "  gracefulpage -engine chromedp -metrics-addr :9090 -config gracefulpage.yaml https://example.com\n")
	}

	_ = fs.Parse(args)

	flags.URLs = fs.Args()
	flags.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { flags.set[f.Name] = true })
	return flags
}

// buildConfig loads the config file, if any, and lays explicit flags over it.
func buildConfig(flags *Flags) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if flags.ConfigPath != "" {
		loaded, err := config.Load(flags.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyFlags(cfg, flags)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch flags.Mode {
	case ModeLinks, ModeText, ModeTitle, ModeHTML:
	default:
		return nil, fmt.Errorf("invalid extract mode: %s (must be 'links', 'text', 'title', or 'html')", flags.Mode)
	}

	if len(flags.URLs) == 0 {
		return nil, fmt.Errorf("at least one URL is required")
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config, flags *Flags) {
	if flags.set["engine"] {
		cfg.Engine = browser.Engine(flags.Engine)
	}
	if flags.set["browser"] {
		cfg.Browser = flags.Browser
	}
	if flags.set["headful"] {
		cfg.Headless = !flags.Headful
	}
	if flags.set["install"] {
		cfg.Install = flags.Install
	}
	if flags.set["retry-interval"] {
		cfg.RetryInterval = flags.RetryInterval
	}
	if flags.set["timeout"] {
		cfg.Navigation.Timeout = flags.Timeout
	}
	if flags.set["wait-until"] {
		cfg.Navigation.WaitUntil = gracefulpage.WaitUntil(flags.WaitUntil)
	}
	if flags.set["metrics-addr"] {
		cfg.Metrics.Address = flags.MetricsAddr
	}
	if flags.set["log-dir"] {
		cfg.Logging.Directory = flags.LogDir
	}
	if flags.set["verbosity"] {
		cfg.Logging.Verbosity = flags.Verbosity
	}
}

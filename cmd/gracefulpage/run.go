package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/entrhq/gracefulpage/pkg/browser"
	"github.com/entrhq/gracefulpage/pkg/config"
	"github.com/entrhq/gracefulpage/pkg/extract"
	"github.com/entrhq/gracefulpage/pkg/gracefulpage"
	"github.com/entrhq/gracefulpage/pkg/logging"
	"github.com/entrhq/gracefulpage/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

// result is the outcome of fetching one URL.
type result struct {
	URL    string
	Status int
	Lines  []string
	Err    error
}

func run(ctx context.Context, cfg *config.Config, mode string, urls []string, out io.Writer) error {
	if cfg.Logging.Directory != "" {
		logging.SetDirectory(cfg.Logging.Directory)
	}
	logger, err := logging.NewLogger("cli")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging to stderr: %v\n", err)
	}
	defer logger.Close()

	level, _ := logging.ParseVerbosity(cfg.Logging.Verbosity)
	logger.SetLevel(level)
	logger.Infof("gracefulpage v%s, engine %s, %d url(s)", version, cfg.Engine, len(urls))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(reg)

	if cfg.Metrics.Address != "" {
		stop := serveMetrics(cfg.Metrics.Address, reg, logger)
		defer stop()
	}

	provider, shutdown, err := openProvider(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(); err != nil {
			logger.Warnf("browser shutdown: %v", err)
		}
	}()

	root := gracefulpage.New(gracefulpage.Options{
		Provider:      provider,
		RetryInterval: cfg.RetryInterval,
		OnError:       recorder.OnError(logger.ErrorHandler("recovered")),
	})

	results := make([]result, len(urls))
	var wg sync.WaitGroup
	for i, url := range urls {
		page := root
		if i > 0 {
			page = root.Fork()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer closePage(ctx, page)
			results[i] = fetch(ctx, page, url, mode, cfg.GotoOptions(), recorder)
			if results[i].Err != nil {
				logger.Errorf("%s: %v", url, results[i].Err)
			} else {
				logger.Infof("%s: status %d, %d line(s)", url, results[i].Status, len(results[i].Lines))
			}
		}()
	}
	wg.Wait()

	return render(out, results)
}

// openProvider starts the configured engine. The returned func releases it.
func openProvider(ctx context.Context, cfg *config.Config) (gracefulpage.Provider, func() error, error) {
	switch cfg.Engine {
	case browser.EngineChromedp:
		provider, err := browser.NewChromeProvider(ctx, cfg.LaunchOptions())
		if err != nil {
			return nil, nil, err
		}
		return provider, provider.Close, nil
	default:
		launcher := browser.NewLauncher(cfg.LaunchOptions())
		if err := launcher.Start(); err != nil {
			return nil, nil, err
		}
		provider, err := launcher.NewProvider()
		if err != nil {
			_ = launcher.Shutdown()
			return nil, nil, err
		}
		return provider, launcher.Shutdown, nil
	}
}

func closePage(ctx context.Context, page *gracefulpage.Page) {
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	page.Close(closeCtx)
}

// fetch navigates page to url and extracts according to mode. Navigation
// and extraction run together under AutoRetryWhenFailed, so a tab reclaimed
// mid-read is reopened, navigated again and read again.
func fetch(ctx context.Context, page *gracefulpage.Page, url, mode string, opts gracefulpage.GotoOptions, recorder *metrics.Recorder) result {
	res := result{URL: url}

	res.Err = page.AutoRetryWhenFailed(ctx, func(ctx context.Context) error {
		start := time.Now()
		resp, err := page.Goto(ctx, url, opts)
		recorder.ObserveNavigation(time.Since(start), err)
		if err != nil {
			return err
		}

		res.Status = 0
		if resp != nil {
			res.Status = resp.Status()
		}

		res.Lines, err = extractLines(ctx, page, url, mode)
		return err
	})
	if res.Err != nil {
		res.Lines = nil
	}
	return res
}

func extractLines(ctx context.Context, page *gracefulpage.Page, url, mode string) ([]string, error) {
	if mode == ModeTitle {
		title, err := page.Title(ctx)
		if err != nil {
			return nil, err
		}
		return []string{title}, nil
	}

	content, err := page.Content(ctx)
	if err != nil {
		return nil, err
	}

	switch mode {
	case ModeLinks:
		return extract.Links(content, url)
	case ModeText:
		text, err := extract.Text(content)
		if err != nil {
			return nil, err
		}
		return []string{text}, nil
	default:
		return []string{content}, nil
	}
}

// render prints results in input order. Multiple URLs get a header each.
// The returned error joins every failure.
func render(out io.Writer, results []result) error {
	var errs []error
	for _, res := range results {
		if len(results) > 1 {
			fmt.Fprintf(out, "== %s ==\n", res.URL)
		}
		if res.Err != nil {
			fmt.Fprintf(out, "error: %v\n", res.Err)
			errs = append(errs, fmt.Errorf("%s: %w", res.URL, res.Err))
			continue
		}
		for _, line := range res.Lines {
			fmt.Fprintln(out, line)
		}
	}
	return errors.Join(errs...)
}

// serveMetrics exposes /metrics on addr until the returned func is called.
func serveMetrics(addr string, g prometheus.Gatherer, logger *logging.Logger) func() {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", metrics.Handler(g))

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server: %v", err)
		}
	}()
	logger.Infof("serving metrics on %s/metrics", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

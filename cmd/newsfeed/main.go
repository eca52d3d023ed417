package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/newsfeed/pkg/config"
	"github.com/umputun/newsfeed/pkg/periodic"
	"github.com/umputun/newsfeed/pkg/presenter"
	"github.com/umputun/newsfeed/pkg/repository"
	"github.com/umputun/newsfeed/pkg/ui"
	"github.com/umputun/newsfeed/server"
)

// Opts with all CLI options
type Opts struct {
	Config       string        `short:"c" long:"config" env:"CONFIG" default:"newsfeed.yml" description:"configuration file"`
	Listen       string        `short:"l" long:"listen" env:"LISTEN" description:"listen address, overrides config"`
	FetchTimeout time.Duration `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30s" description:"timeout of a single news fetch"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if opts.NoColor {
		color.NoColor = true
	}
	setupLog(opts.Debug)

	lgr.Printf("[INFO] starting newsfeed version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		lgr.Printf("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()

	if err != nil {
		lgr.Printf("[ERROR] %v", err)
		os.Exit(1)
	}

	lgr.Printf("[INFO] shutdown complete")
}

// run wires the news feed and serves it until ctx is done
func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}
	if secrets := feedSecrets(cfg.Feeds.URLs); len(secrets) > 0 {
		setupLog(opts.Debug, secrets...)
	}

	store, err := repository.NewStore(ctx, repository.StoreConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("failed to open news cache: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			lgr.Printf("[WARN] can't close news cache: %v", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	rss := repository.NewRSS(repository.RSSParams{
		URLs:      cfg.Feeds.URLs,
		Timeout:   cfg.Feeds.Timeout,
		UserAgent: cfg.Feeds.UserAgent,
	})
	repo := repository.NewCached(repository.CachedParams{
		Source:          repository.NewInstrumented(rss, reg),
		Cache:           newPruningCache(store, cfg.Database.KeepNews),
		FallbackToCache: cfg.Feeds.FallbackToCache,
		FallbackLimit:   cfg.Database.KeepNews,
	})

	g, gctx := errgroup.WithContext(ctx)

	view := server.NewFeedView()
	loop := ui.NewLoop(0)
	feed := presenter.NewNews(view, repo, periodic.Ticker{}, loop, ui.Background{},
		presenter.WithContext(gctx), presenter.WithFetchTimeout(opts.FetchTimeout))

	srv := server.New(server.Params{
		Config:    cfg,
		Snapshots: view,
		Refresher: feed,
		Gatherer:  reg,
		Version:   revision,
		Debug:     opts.Debug,
	})

	if err := feed.Start(); err != nil {
		return fmt.Errorf("failed to start news feed: %w", err)
	}

	g.Go(func() error { return loop.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		feed.Close()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// feedSecrets returns credentials embedded in feed urls, to be masked in logs
func feedSecrets(urls []string) []string {
	var res []string
	for _, u := range urls {
		parsed, err := url.Parse(u)
		if err != nil || parsed.User == nil {
			continue
		}
		if pass, ok := parsed.User.Password(); ok && pass != "" {
			res = append(res, pass)
		}
	}
	return res
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}

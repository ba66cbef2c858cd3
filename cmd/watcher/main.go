package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/kalshi-watch/internal/api"
	"github.com/rickgao/kalshi-watch/internal/auth"
	"github.com/rickgao/kalshi-watch/internal/book"
	"github.com/rickgao/kalshi-watch/internal/config"
	"github.com/rickgao/kalshi-watch/internal/events"
	"github.com/rickgao/kalshi-watch/internal/marketdata"
	"github.com/rickgao/kalshi-watch/internal/signal"
	"github.com/rickgao/kalshi-watch/internal/store"
	"github.com/rickgao/kalshi-watch/internal/stream"
	"github.com/rickgao/kalshi-watch/internal/version"
	"github.com/rickgao/kalshi-watch/internal/watch"
)

func main() {
	configPath := flag.String("config", "configs/watcher.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("watcher failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadAndValidate(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting watcher",
		"version", version.Version,
		"commit", version.Commit,
		"config", configPath,
		"series", cfg.Contract.Prefix,
	)

	// Missing or unreadable credentials abort startup.
	creds, err := auth.LoadCredentials(cfg.API.APIKey, cfg.API.PrivateKeyPath)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	ossignal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Event routing and sinks.
	router := events.NewRouter(logger)
	router.Register(events.NewLogSink(logger))
	history := events.NewHistorySink()
	router.Register(history)

	var recordSinks []events.RecordSink
	if cfg.Sessions.Enabled {
		csvSink := events.NewCSVSink(events.CSVConfig{
			Dir:         cfg.Sessions.Dir,
			SeriesLabel: seriesLabel(cfg.Contract),
			FileTag:     strings.ToLower(cfg.Contract.Prefix),
			Rules:       rulesLine(cfg.Signal),
		}, logger)
		router.Register(csvSink)
		recordSinks = append(recordSinks, csvSink)
	}

	var pgSink *events.PostgresSink
	if cfg.Database.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Database.Postgres.Host,
			"port", cfg.Database.Postgres.Port,
			"database", cfg.Database.Postgres.Name,
		)
		pool, err := store.Connect(ctx, cfg.Database.Postgres)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		if err := store.EnsureSchema(ctx, pool); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		pgSink = events.NewPostgresSink(events.DefaultPostgresConfig(), pool, logger)
		if err := pgSink.Start(ctx); err != nil {
			return fmt.Errorf("start postgres sink: %w", err)
		}
		router.Register(pgSink)
		logger.Info("database connected")
	}

	// Market data: REST metadata client, spot poller, strike fetcher.
	apiClient := api.NewClient(
		cfg.API.RestURL,
		creds,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
	)
	mkt := marketdata.NewContext()

	spot := api.NewSpotClient(cfg.Spot.URL, logger)
	poller := marketdata.NewSpotPoller(marketdata.PollerConfig{
		Interval: cfg.Spot.Interval,
		Timeout:  cfg.Spot.Timeout,
	}, spot, mkt, logger)
	if err := poller.Start(ctx); err != nil {
		return fmt.Errorf("start spot poller: %w", err)
	}

	fetcher := marketdata.NewStrikeFetcher(marketdata.StrikeConfig{
		Attempts: cfg.Strike.Attempts,
		Spacing:  cfg.Strike.Spacing,
	}, apiClient, mkt, logger)

	// Streams and the consumer loop.
	sides := make([]book.Side, 0, len(cfg.Contract.Sides))
	for _, s := range cfg.Contract.Sides {
		side, _ := book.ParseSide(s)
		sides = append(sides, side)
	}

	wsURL := cfg.API.WSURL + auth.WebSocketPath
	factory := func(ticker string, side book.Side) watch.MarketStream {
		sc := stream.DefaultSessionConfig(wsURL, ticker)
		return stream.NewSession(sc, creds.WebSocketHeaders, logger.With("side", side))
	}

	watcher := watch.NewWatcher(
		watch.DefaultWatchConfig(cfg.Contract.Prefix, cfg.Contract.Duration, sides),
		watch.Deps{
			Streams: factory,
			Strike:  fetcher.Fetch,
			Market:  mkt,
			Router:  router,
			Records: recordSinks,
			Signal:  signalConfig(cfg.Signal),
			Logger:  logger,
		},
	)
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	logger.Info("watcher running",
		"contract", watcher.Contract().Ticker,
		"sides", cfg.Contract.Sides,
	)

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// The watcher is the producer: it must publish the final contract
	// summaries before the sinks run their shutdown flush, so it stops
	// first and alone.
	if err := watcher.Stop(shutdownCtx); err != nil {
		logger.Warn("watcher stop incomplete", "error", err)
	}

	g := new(errgroup.Group)
	g.Go(func() error { return poller.Stop(shutdownCtx) })
	if pgSink != nil {
		g.Go(func() error { return pgSink.Stop(shutdownCtx) })
	}
	if err := g.Wait(); err != nil {
		logger.Warn("shutdown incomplete", "error", err)
	}

	history.Report(logger)
	logger.Info("watcher stopped")
	return nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func signalConfig(cfg config.SignalConfig) signal.Config {
	return signal.Config{
		EntryThreshold:   cfg.EntryThreshold,
		TargetThreshold:  cfg.TargetThreshold,
		StopThreshold:    cfg.StopThreshold,
		MinDwell:         cfg.MinDwell,
		StopArmDelay:     cfg.StopArmDelay,
		NoEntryAfter:     cfg.NoEntryAfter,
		MaxCycles:        cfg.MaxCycles,
		PreExpiryLockout: cfg.PreExpiryLockout,
	}
}

func seriesLabel(cfg config.ContractConfig) string {
	return fmt.Sprintf("%s %d Minute", cfg.Prefix, int(cfg.Duration.Minutes()))
}

func rulesLine(cfg config.SignalConfig) string {
	rules := fmt.Sprintf("Entry <=%dc | Take Profit >=%dc | Stop Loss <=%dc",
		cfg.EntryThreshold, cfg.TargetThreshold, cfg.StopThreshold)
	if cfg.NoEntryAfter > 0 {
		rules += fmt.Sprintf(" | No entry after %d min", int(cfg.NoEntryAfter.Minutes()))
	}
	return rules
}

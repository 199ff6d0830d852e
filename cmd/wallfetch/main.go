package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"wallfetch/internal/config"
	"wallfetch/internal/download"
	"wallfetch/internal/filter"
	"wallfetch/internal/publisher"
	"wallfetch/internal/resolver"
	"wallfetch/internal/scheduler"
	"wallfetch/internal/selector"
	"wallfetch/internal/service"
	"wallfetch/internal/source/reddit"
	"wallfetch/internal/storage/imagedir"
	"wallfetch/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	count := flag.Int("count", 0, "number of images to fetch (max 100)")
	dest := flag.String("dest", "", "destination directory")
	keep := flag.Int("keep", 0, "number of images to keep in the directory (> count)")
	minScore := flag.Int("min-score", 0, "minimum post score")
	resolution := flag.String("resolution", "", "display resolution, e.g. 1920x1080")
	once := flag.Bool("once", false, "run once and exit instead of running on an interval")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		logger.Warn("config file not found, using defaults", "path", *configPath)
		cfg = config.Default()
	}

	// CLI flags override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "count":
			cfg.Images.Count = *count
		case "dest":
			cfg.Images.Dest = *dest
		case "keep":
			cfg.Images.KeepCount = *keep
		case "min-score":
			cfg.Images.MinScore = *minScore
		case "resolution":
			cfg.Images.Resolution = *resolution
		case "once":
			cfg.Run.Once = *once
		}
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	target, err := cfg.Images.TargetResolution()
	if err != nil {
		logger.Error("invalid resolution", "error", err)
		os.Exit(1)
	}

	store, err := imagedir.New(cfg.Images.Dest, logger)
	if err != nil {
		logger.Error("failed to open destination directory", "error", err)
		os.Exit(1)
	}

	// Optional download history store
	var history service.History
	if cfg.Database.Enabled {
		db, err := sqlx.Connect("postgres", cfg.Database.DSN())
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		logger.Info("connected to database")
		history = postgres.NewHistoryStore(db)
	}

	// Optional RabbitMQ publisher
	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	source := reddit.New(reddit.Config{
		BaseURL:        cfg.API.BaseURL,
		UserAgent:      cfg.API.UserAgent,
		Timeout:        cfg.API.Timeout,
		MaxAttempts:    cfg.API.Retry.MaxAttempts,
		InitialBackoff: cfg.API.Retry.InitialBackoff,
		MaxBackoff:     cfg.API.Retry.MaxBackoff,
	}, logger)

	resolverChain := resolver.NewChain(logger,
		resolver.NewFlickrRule(cfg.API.Timeout),
		resolver.NewPreviewRule(),
	)

	imageFilter := filter.New(target, logger)
	sel := selector.New(resolverChain, imageFilter, cfg.Images.MinScore, logger)
	downloader := download.New(cfg.API.Timeout, cfg.API.UserAgent, logger)

	fetchService := service.NewFetchService(
		source,
		sel,
		downloader,
		store,
		history,
		pub,
		logger,
		cfg.Images,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting wallfetch",
		"source", source.Name(),
		"dest", cfg.Images.Dest,
		"count", cfg.Images.Count,
		"keep_count", cfg.Images.KeepCount,
		"resolution", cfg.Images.Resolution,
		"once", cfg.Run.Once,
	)

	if cfg.Run.Once {
		if _, err := fetchService.Run(ctx); err != nil {
			logger.Error("run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	sched := scheduler.NewScheduler(fetchService, cfg.Run.Interval, logger)
	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

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
	"golang.org/x/sync/errgroup"

	"feed_ingestor/internal/api"
	"feed_ingestor/internal/config"
	"feed_ingestor/internal/publisher"
	"feed_ingestor/internal/runlock"
	"feed_ingestor/internal/scheduler"
	"feed_ingestor/internal/service"
	"feed_ingestor/internal/source/rss"
	"feed_ingestor/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single ingestion pass and exit")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *once, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("ingestor stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("ingestor stopped")
}

func run(ctx context.Context, cfg *config.Config, once bool, logger *slog.Logger) error {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	logger.Info("connected to database")

	pub, err := setupPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if pub != nil {
		defer pub.Close()
	}

	sourceStore := postgres.NewSourceStore(db)
	articleStore := postgres.NewArticleStore(db)
	runLogStore := postgres.NewRunLogStore(db)
	txManager := postgres.NewTransactionManager(db)

	feedSource := rss.New(rss.NewHTTPParser(rss.ParserConfig{
		Timeout:      cfg.Fetch.Timeout,
		UserAgent:    cfg.Fetch.UserAgent,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	}), logger)

	var notifier service.Publisher
	if pub != nil {
		notifier = pub
	}
	coordinator := service.NewCoordinator(sourceStore, articleStore, runLogStore, feedSource, txManager, notifier, logger)

	lockers := []runlock.Locker{runlock.NewLocalLocker()}
	if cfg.Redis.URL != "" {
		client, err := runlock.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer client.Close()
		lockers = append(lockers, runlock.NewRedisLocker(client, cfg.Redis.LockKey, cfg.Redis.LockTTL))
		logger.Info("redis run lock enabled", "key", cfg.Redis.LockKey, "ttl", cfg.Redis.LockTTL)
	}
	guard := runlock.NewGuard(coordinator, cfg.Schedule.RunTimeout, logger, lockers...)

	if once {
		_, err := guard.RunOnce(ctx)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	sched := scheduler.NewScheduler(guard, scheduler.Config{
		Interval:   cfg.Schedule.Interval,
		RunTimeout: cfg.Schedule.RunTimeout,
		RunOnStart: *cfg.Schedule.RunOnStart,
	}, logger)
	g.Go(func() error { return sched.Start(gctx) })

	if cfg.HTTP.Addr != "" {
		srv := api.NewServer(gctx, guard, logger)
		g.Go(func() error { return srv.Serve(gctx, cfg.HTTP.Addr) })
	}

	logger.Info("starting feed ingestor",
		"interval", cfg.Schedule.Interval,
		"http_addr", cfg.HTTP.Addr,
	)

	return g.Wait()
}

// setupPublisher returns nil when no notification sink is enabled.
func setupPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*publisher.Fanout, error) {
	var sinks []publisher.Sink

	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, rabbitMQ)
	}

	if cfg.SQS.Enabled {
		sqsPub, err := publisher.NewSQS(ctx, publisher.SQSConfig{
			QueueURL: cfg.SQS.QueueURL,
			Region:   cfg.SQS.Region,
		}, logger)
		if err != nil {
			_ = publisher.NewFanout(sinks...).Close()
			return nil, err
		}
		sinks = append(sinks, sqsPub)
	}

	if len(sinks) == 0 {
		return nil, nil
	}
	return publisher.NewFanout(sinks...), nil
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

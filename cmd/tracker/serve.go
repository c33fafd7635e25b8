package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/driver"
	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/hub"
	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/publisher"
	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/repository"
	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/server"
	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/store"
	"github.com/akriti-kesarwani/crypto-price--tracker/pkg/config"
	"github.com/akriti-kesarwani/crypto-price--tracker/pkg/models"
)

const shutdownTimeout = 5 * time.Second

type serveCmd struct{}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the price table web service" }
func (*serveCmd) Usage() string {
	return `tracker serve

  Serves the live price table, the JSON API and the websocket stream.
  Configuration comes from the environment (APP_PORT, GATEWAY_SOURCE, KAFKA_ENABLED, ...).
`
}

func (*serveCmd) SetFlags(*flag.FlagSet) {}

func (*serveCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return subcommands.ExitUsageError
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		return subcommands.ExitUsageError
	}
	defer logger.Sync()

	if err := serve(cfg, logger); err != nil {
		logger.Error("Serve Error", zap.Error(err))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func serve(cfg *config.Config, logger *zap.Logger) error {
	for _, w := range cfg.Warnings() {
		logger.Warn("Config Warning", zap.String("warning", w),
			zap.String("source", cfg.Gateway.Source), zap.Bool("kafka", cfg.Kafka.Enabled))
	}

	s, err := store.New(models.SeedAssets())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pub *publisher.Publisher
	if cfg.Kafka.Enabled {
		tc := publisher.NewTopicCreator(logger, &publisher.RealKafkaDialer{Dialer: &kafka.Dialer{Timeout: 5 * time.Second}}, publisher.RealClock{})
		if !tc.Create(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic) {
			logger.Warn("Topic not confirmed, publishing anyway", zap.String("topic", cfg.Kafka.Topic))
		}
		pub = publisher.NewPublisher(ctx, logger, publisher.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		s.Subscribe(pub.Publish)
	}

	var feed repository.PriceFeed
	switch cfg.Gateway.Source {
	case config.SourceRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		feed = repository.NewRedisFeed(rdb)
	default:
		feed = repository.NewMemoryFeed(s, logger)
	}

	// Dependency Injection: Hub depends on the PriceFeed interface
	wsHub := hub.New(ctx, feed, s.Symbols(), logger)

	d := driver.NewDriver(logger, s, driver.NewRealRand(), driver.RealClock{})
	if err := d.Start(ctx); err != nil {
		return err
	}

	srv := server.New(logger, s, wsHub, server.Options{
		Title:     cfg.View.Title,
		LogoBase:  cfg.View.LogoBase,
		ChartRand: driver.SharedRand{},
		Ticks:     d.Ticks,
	})
	httpSrv := &http.Server{Addr: cfg.App.Port, Handler: srv.Router()}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server Started",
			zap.String("port", cfg.App.Port),
			zap.String("source", cfg.Gateway.Source),
			zap.Bool("kafka", cfg.Kafka.Enabled),
		)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case <-stop:
		logger.Info("Shutdown signal received")
	case runErr = <-errCh:
		logger.Error("HTTP Error", zap.Error(runErr))
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}

	d.Stop()
	cancel()

	if err := feed.Close(); err != nil {
		logger.Warn("Error closing feed", zap.Error(err))
	}
	if pub != nil {
		// Flush Kafka buffer
		if err := pub.Close(); err != nil {
			logger.Error("Error closing Kafka writer", zap.Error(err))
		} else {
			logger.Info("Kafka writer closed cleanly")
		}
	}

	logger.Info("Shutdown Complete", zap.Int64("ticks", d.Ticks()))
	return runErr
}

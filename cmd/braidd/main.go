// Command braidd is the Braid engine daemon. It loads braid.yml,
// provisions the workspace in Redis, rebuilds the in-memory projections
// from the event ledger and then serves: the activity pipeline, the
// health/metrics endpoint and (optionally) a scripted demo workload.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/braidhq/braid/internal/activity"
	"github.com/braidhq/braid/internal/config"
	"github.com/braidhq/braid/internal/engine"
	"github.com/braidhq/braid/internal/logging"
	"github.com/braidhq/braid/internal/registry"
	"github.com/braidhq/braid/pkg/ledger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", envOr("BRAID_CONFIG", "braid.yml"), "path to braid.yml")
	logLevel := flag.String("log-level", envOr("BRAID_LOG_LEVEL", "info"), "log level")
	demo := flag.Bool("demo", false, "seed demo threads and run scripted producers")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log := logging.New(os.Stdout, *logLevel)
	log.Info().
		Str("workspace", cfg.Workspace).
		Int("modules", len(cfg.Modules)).
		Int("agents", len(cfg.Agents)).
		Msg("braidd starting")

	store, err := ledger.NewStore(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Workspace)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("redis not accessible at %s: %w", cfg.RedisAddr(), err)
	}

	state, err := provision(ctx, store, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to provision workspace: %w", err)
	}

	reg := registry.New()
	for _, agent := range state.agents {
		if err := reg.Register(*agent); err != nil {
			return err
		}
	}

	feed := activity.NewFeed(cfg.FeedCapacity())
	pipeline := activity.NewPipeline(feed, cfg.Feed.QueueSize)
	for _, agent := range state.agents {
		if err := pipeline.Register(agent.ID); err != nil {
			return err
		}
	}
	if err := pipeline.Register(engine.PipelineProducerEngine); err != nil {
		return err
	}

	promRegistry := prometheus.NewRegistry()
	eng, err := engine.New(engine.Options{
		Store:     store,
		Registry:  reg,
		Feed:      feed,
		Pipeline:  pipeline,
		TieBreak:  cfg.TieBreak(),
		Authority: cfg.Authority(),
		Logger:    log,
		Metrics:   engine.NewMetrics(promRegistry),
	})
	if err != nil {
		return err
	}

	if err := eng.Rebuild(ctx); err != nil {
		return fmt.Errorf("failed to rebuild projections: %w", err)
	}

	health := engine.NewHealthServer(store, promRegistry, cfg.HealthAddr(), log)
	health.Start()
	log.Info().Str("addr", cfg.HealthAddr()).Msg("health server listening")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pipeline.Run(gctx)
	})
	if *demo {
		runner, err := demoWorkload(gctx, eng, store, state, log)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return runner.Run(gctx)
		})
	}

	err = g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := health.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error().Err(shutdownErr).Msg("health server shutdown failed")
	}

	if err != nil && ctx.Err() == nil {
		return err
	}
	log.Info().Msg("braidd stopped")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

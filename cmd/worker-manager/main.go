// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"diner-matching/internal/common/aws"
	"diner-matching/internal/common/camunda"
	"diner-matching/internal/common/config"
	"diner-matching/internal/common/database"
	"diner-matching/internal/common/logger"
	"diner-matching/internal/common/observability"
	"diner-matching/internal/store"
	notify "diner-matching/internal/workers/matching/notify-daily-match"
	pair "diner-matching/internal/workers/matching/pair-daily-matches"
	rank "diner-matching/internal/workers/matching/rank-diner-candidates"
	score "diner-matching/internal/workers/matching/score-diner-pair"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("worker manager stopped with error", map[string]interface{}{"error": err.Error()})
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting worker manager", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs := observability.New(observability.Options{
		ServiceName:    cfg.Observability.ServiceName,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
		SampleRatio:    cfg.Observability.SampleRatio,
	}, log.Named("observability"))
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			log.Warn("observability shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Infrastructure ---
	var zeebeClient zbc.Client
	err := connectWithRetry(ctx, log, "zeebe", defaultBackoff, func(context.Context) error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	})
	if err != nil {
		return err
	}
	defer zeebeClient.Close()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()
	if err := connectWithRetry(ctx, log, "postgres", defaultBackoff, pg.Ping); err != nil {
		return err
	}

	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()
	if err := connectWithRetry(ctx, log, "redis", defaultBackoff, rdb.Ping); err != nil {
		return err
	}

	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		return err
	}
	if err := connectWithRetry(ctx, log, "elasticsearch", defaultBackoff, esClient.Ping); err != nil {
		return err
	}

	// --- Stores ---
	profiles := store.NewCachedStore(
		store.NewPostgresStore(pg.DB, log),
		rdb.Client,
		store.CacheOptions{
			TTL:       time.Duration(cfg.Matching.CacheTTL) * time.Second,
			LocalSize: cfg.Matching.LocalCache,
		},
		log,
	)
	search := store.NewSearchPool(esClient.Client, cfg.Matching.SearchIndex, log)

	// --- Workers ---
	pool := camunda.NewPool(zeebeClient, log.Named("workers"))
	defer pool.Close()

	if err := registerWorkers(ctx, cfg, pool, profiles, search, obs, log); err != nil {
		return err
	}
	log.Info("workers registered", map[string]interface{}{"taskTypes": pool.TaskTypes()})

	// --- Health & Metrics Server ---
	srv := &http.Server{
		Addr: cfg.App.HealthAddr,
		Handler: newHealthMux(map[string]database.Pinger{
			"postgres":      pg,
			"redis":         rdb,
			"elasticsearch": esClient,
		}, pool, 5*time.Second),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping workers", nil)
	case err := <-serverErr:
		log.Error("health/metrics server failed", map[string]interface{}{"error": err.Error()})
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("health/metrics server shutdown failed", map[string]interface{}{"error": err.Error()})
	}

	log.Info("worker manager stopped gracefully", nil)
	return nil
}

// registerWorkers opens a job worker per enabled task type.
func registerWorkers(
	ctx context.Context,
	cfg *config.Config,
	pool *camunda.Pool,
	profiles store.ProfileStore,
	search store.CandidateSource,
	obs *observability.Observability,
	log logger.Logger,
) error {
	scoreHandler := score.NewHandler(score.LoadConfig(cfg), profiles, obs, log)
	pool.Start(score.TaskType, config.GetWorkerConfig(cfg, score.TaskType), scoreHandler.Handle)

	rankHandler := rank.NewHandler(rank.HandlerOptions{
		Config:   rank.LoadConfig(cfg),
		Profiles: profiles,
		Search:   search,
		Obs:      obs,
		Logger:   log,
	})
	pool.Start(rank.TaskType, config.GetWorkerConfig(cfg, rank.TaskType), rankHandler.Handle)

	pairHandler := pair.NewHandler(pair.LoadConfig(cfg), profiles, obs, log)
	pool.Start(pair.TaskType, config.GetWorkerConfig(cfg, pair.TaskType), pairHandler.Handle)

	if !config.IsWorkerEnabled(cfg, notify.TaskType) {
		log.Info("worker disabled", map[string]interface{}{"taskType": notify.TaskType})
		return nil
	}
	opts := notify.HandlerOptions{
		Config:   notify.LoadConfig(cfg),
		Profiles: profiles,
		Obs:      obs,
		Logger:   log,
	}
	if opts.Config.EmailEnabled || opts.Config.SMSEnabled {
		sesClient, snsClient, err := aws.NewClients(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			return err
		}
		if opts.Config.EmailEnabled {
			opts.Email = aws.NewMailer(sesClient, cfg.Notifications.Email.FromEmail)
		}
		if opts.Config.SMSEnabled {
			opts.SMS = aws.NewTexter(snsClient, cfg.Notifications.SMS.SenderID)
		}
	}
	notifyHandler, err := notify.NewHandler(opts)
	if err != nil {
		return fmt.Errorf("create %s handler: %w", notify.TaskType, err)
	}
	pool.Start(notify.TaskType, config.GetWorkerConfig(cfg, notify.TaskType), notifyHandler.Handle)
	return nil
}

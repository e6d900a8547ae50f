package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/marketplace-backend/internal/app"
	"github.com/angelmondragon/marketplace-backend/internal/cron"
	"github.com/angelmondragon/marketplace-backend/pkg/config"
	"github.com/angelmondragon/marketplace-backend/pkg/db"
	"github.com/angelmondragon/marketplace-backend/pkg/instance"
	"github.com/angelmondragon/marketplace-backend/pkg/logger"
	"github.com/angelmondragon/marketplace-backend/pkg/metrics"
	"github.com/angelmondragon/marketplace-backend/pkg/migrate"
	"github.com/angelmondragon/marketplace-backend/pkg/redis"
)

const (
	sweepLockName   = "subscription-sweep"
	shutdownTimeout = 30 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var (
		cache redis.Cache
		lock  cron.Lock = &cron.LocalLock{}
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		cache = redisClient
		redisLock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(sweepLockName), cfg.Cron.LockTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create cron lock", err)
			os.Exit(1)
		}
		lock = redisLock
	} else {
		logg.Warn(context.Background(), "redis not configured, cron lock is process local")
	}

	services, err := app.Build(app.Params{Config: cfg, DB: dbClient, Cache: cache, Logger: logg})
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	expiryJob, err := cron.NewSubscriptionExpiryJob(cron.SubscriptionExpiryJobParams{
		Logger:  logg,
		Sweeper: services.Subscriptions,
		Metrics: metrics.NewSweepMetrics(reg),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription expiry job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	if err := registry.Register(expiryJob); err != nil {
		logg.Error(context.Background(), "failed to register cron job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
		Schedule: cfg.Cron.SweepSchedule,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID("worker-0"),
		"schedule":    cfg.Cron.SweepSchedule,
	})

	metricsServer := &http.Server{
		Addr:              cfg.Cron.MetricsAddr,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	var runErr error
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		logg.Info(ctx, "starting cron worker")
		runErr = service.Run(runCtx)
	}()

	wait := gfshutdown.GracefulShutdown(context.Background(), shutdownTimeout, shutdownHooks(cancelRun, runDone, metricsServer))

	// Run only returns early on a scheduling error; a signal cancels runCtx
	// and the shutdown hooks report through wait.
	var exitCode int
	select {
	case <-runDone:
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			logg.Error(ctx, "cron worker stopped unexpectedly", runErr)
			os.Exit(1)
		}
		exitCode = <-wait
	case exitCode = <-wait:
	}
	if exitCode != 0 {
		logg.Info(logg.WithField(ctx, "exit_code", exitCode), "cron worker shutdown incomplete")
		os.Exit(exitCode)
	}
	logg.Info(ctx, "cron worker shut down gracefully")
}

// shutdownHooks stops the scheduler, waiting for an in-flight cycle, and
// drains the metrics listener.
func shutdownHooks(cancelRun context.CancelFunc, runDone <-chan struct{}, metricsServer *http.Server) map[string]gfshutdown.Operation {
	return map[string]gfshutdown.Operation{
		"cron-scheduler": func(ctx context.Context) error {
			cancelRun()
			select {
			case <-runDone:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		"metrics-server": func(ctx context.Context) error {
			return metricsServer.Shutdown(ctx)
		},
	}
}

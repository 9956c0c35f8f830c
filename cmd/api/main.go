package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"budgetbully/internal/infrastructure/postgres/listener"
	"budgetbully/internal/interfaces/scheduler"
	"budgetbully/internal/shared/config"
	"budgetbully/internal/shared/logger"
	"budgetbully/internal/shared/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Application error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			Environment:  cfg.Telemetry.Environment,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			MetricsPort:  cfg.Telemetry.MetricsPort,
			SampleRatio:  cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(sctx); err != nil {
				log.Error().Err(err).Msg("Telemetry shutdown failed")
			}
		}()
	}

	deps, err := NewDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	pool := scheduler.NewWorkerPool(cfg.Scheduler.WorkerCount, cfg.Scheduler.JobDelay, cfg.Sync.JobTimeout, cfg.Scheduler.QueueSize)
	queue := scheduler.NewSyncQueue(pool, deps.TransactionSyncService)
	deps.AttachQueue(queue)
	pool.Start()

	bg := Background{Pool: pool}

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.NewScheduler(pool, scheduler.SchedulerConfig{
			ScheduleTimes: cfg.Scheduler.ScheduleTimes,
			RunOnStartup:  cfg.Scheduler.RunOnStartup,
			JobProvider:   scheduler.SyncableItemsProvider(deps.ItemRepo, deps.TransactionSyncService),
		})
		if err != nil {
			pool.Shutdown()
			return err
		}
		sched.Start()
		bg.Scheduler = sched
		log.Info().Time("next_run", sched.GetNextScheduledTime(time.Now())).Msg("Scheduler started")
	} else {
		log.Info().Msg("Scheduler is disabled")
	}

	bg.Listener = listener.NewSyncListener(cfg.Database.ConnectionString(), queue)
	bg.Listener.Start(ctx)

	handler := SetupRoutes(deps, cfg)
	srv, redirectSrv := StartServers(NewServerConfigFromConfig(handler, cfg))

	<-ctx.Done()
	stop()

	GracefulShutdown(srv, redirectSrv, bg, shutdownTimeout)
	return nil
}

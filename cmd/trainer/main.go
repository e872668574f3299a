package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"demandcast/internal/adapters/errors/noop"
	"demandcast/internal/adapters/errors/sentry"
	"demandcast/internal/config"
	"demandcast/internal/metrics"
	"demandcast/internal/modelstore"
	"demandcast/internal/repository/postgres"
	"demandcast/internal/training"
	"demandcast/internal/workers"
	"demandcast/pkg/errors"
	"demandcast/pkg/logger"
)

func main() {
	once := flag.Bool("once", false, "run one training pass and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic(err)
	}
	log := logger.Get()
	defer func() { _ = log.Sync() }()

	tracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(tracker)
	defer func() { _ = tracker.Flush(context.Background()) }()

	metrics.Register()

	pg, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer func() { _ = pg.Close() }()

	history := postgres.NewHistoryRepository(pg.DB())
	models := modelstore.New(cfg.Model.ArtifactDir, cfg.Model.StoreID, log)
	trainer := training.New(history, models, cfg.Training, log)

	if *once {
		runOnce(trainer, cfg.Training.LookbackDays, log)
		return
	}

	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(workers.NewTrainingWorker(
		trainer,
		cfg.Training.LookbackDays,
		cfg.Workers.TrainingInterval,
		cfg.Workers.TrainingEnabled,
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := scheduler.Start(ctx); err != nil {
		log.Fatalw("Failed to start scheduler", "error", err)
	}

	<-ctx.Done()
	if err := scheduler.Stop(2 * time.Minute); err != nil {
		log.Warnw("Scheduler shutdown error", "error", err)
	}
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

func runOnce(trainer *training.Trainer, lookbackDays int, log *logger.Logger) {
	outcomes, err := trainer.TrainAllGroups(context.Background(), lookbackDays)
	if err != nil {
		log.Fatalw("Training run failed", "error", err)
	}
	for group, outcome := range outcomes {
		if outcome.Success {
			log.Infow("Group trained",
				"group", group,
				"pinball", outcome.Metrics.Pinball,
				"mae", outcome.Metrics.MAE)
		} else {
			log.Warnw("Group not trained", "group", group, "reason", outcome.Reason)
		}
	}
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"sharekindness/internal/adapter/repo"
	"sharekindness/internal/infra"
	"sharekindness/internal/workflow"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLoggerFromConfig(cfg).With().Str("cmd", "worker").Logger()

	if cfg.StoreDriver != infra.StoreDriverPostgres {
		logger.Fatal().Str("driver", cfg.StoreDriver).Msg("worker: requires the postgres store")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	svc := workflow.NewService(repo.NewStore(infra.NewSQLRunner(pool, logger)), logger)
	sw := &sweeper{
		svc:      svc,
		logger:   logger,
		ttl:      cfg.DonationTTL,
		interval: cfg.SweepInterval,
	}
	if err := sw.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

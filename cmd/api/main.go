package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"sharekindness/internal/adapter/memstore"
	"sharekindness/internal/adapter/repo"
	"sharekindness/internal/auth"
	"sharekindness/internal/domain"
	"sharekindness/internal/http/handlers"
	httpapi "sharekindness/internal/http/httpapi"
	"sharekindness/internal/infra"
	"sharekindness/internal/infra/geoip"
	"sharekindness/internal/storage"
	"sharekindness/internal/workflow"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLoggerFromConfig(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store domain.Store
	switch cfg.StoreDriver {
	case infra.StoreDriverMemory:
		logger.Warn().Msg("api: using in-memory store, data is lost on restart")
		store = memstore.New()
	default:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: failed to connect database")
		}
		defer pool.Close()
		store = repo.NewStore(infra.NewSQLRunner(pool, logger))
	}

	mediaPath := cfg.MediaPath
	if abs, err := filepath.Abs(mediaPath); err == nil {
		mediaPath = abs
	}
	files, err := storage.NewFileStore(mediaPath, cfg.MediaBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure media storage")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip disabled")
	}
	defer resolver.Close()

	svc := workflow.NewService(store, logger, workflow.WithMaxRequests(cfg.MaxRequestsPerDonation))
	authSvc := auth.NewService(store, auth.Config{
		Secret:                 cfg.JWTSecret,
		AccessTTL:              cfg.AccessTokenTTL,
		RefreshTTL:             cfg.RefreshTokenTTL,
		RotateRefreshTokens:    cfg.RotateRefreshTokens,
		BlacklistAfterRotation: cfg.BlacklistAfterRotation,
	}, logger)

	app := handlers.NewApp(cfg, logger, svc, authSvc, files)
	var lookup func(string) (string, error)
	if resolver != nil {
		lookup = geoip.LookupFunc(resolver)
	}
	router := httpapi.NewRouter(app, lookup)

	server := infra.NewHTTPServer(cfg, router)
	if err := server.Run(ctx, logger); err != nil {
		logger.Fatal().Err(err).Msg("api: http server failed")
	}
}

// Package apitest starts the full API over an in-memory store for tests.
package apitest

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"sharekindness/internal/adapter/memstore"
	"sharekindness/internal/auth"
	"sharekindness/internal/domain"
	"sharekindness/internal/http/handlers"
	"sharekindness/internal/http/httpapi"
	"sharekindness/internal/infra"
	"sharekindness/internal/storage"
	"sharekindness/internal/workflow"
)

const Secret = "apitest-secret"

// Server is a running API with direct access to its collaborators.
type Server struct {
	*httptest.Server
	Store   *memstore.Store
	Service *workflow.Service
	Auth    *auth.Service
	Files   *storage.FileStore
	Config  *infra.Config
}

// Option tweaks the configuration before the server starts.
type Option func(*infra.Config)

// New starts a server that is closed when the test ends.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()
	cfg := &infra.Config{
		AppEnv:                 "test",
		StoreDriver:            infra.StoreDriverMemory,
		JWTSecret:              Secret,
		AccessTokenTTL:         time.Hour,
		RefreshTokenTTL:        24 * time.Hour,
		RotateRefreshTokens:    true,
		BlacklistAfterRotation: true,
		MediaPath:              t.TempDir(),
		MaxUploadBytes:         1 << 20,
		DefaultLocale:          "en",
		CORSAllowedOrigins:     []string{"*"},
		MaxRequestsPerDonation: 5,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	logger := zerolog.Nop()
	store := memstore.New()
	svc := workflow.NewService(store, logger, workflow.WithMaxRequests(cfg.MaxRequestsPerDonation))
	authSvc := auth.NewService(store, auth.Config{
		Secret:                 cfg.JWTSecret,
		AccessTTL:              cfg.AccessTokenTTL,
		RefreshTTL:             cfg.RefreshTokenTTL,
		RotateRefreshTokens:    cfg.RotateRefreshTokens,
		BlacklistAfterRotation: cfg.BlacklistAfterRotation,
		BcryptCost:             bcrypt.MinCost,
	}, logger)

	s := &Server{Store: store, Service: svc, Auth: authSvc, Config: cfg}
	s.Server = httptest.NewUnstartedServer(nil)
	cfg.MediaBaseURL = "http://" + s.Listener.Addr().String() + "/media"
	files, err := storage.NewFileStore(cfg.MediaPath, cfg.MediaBaseURL)
	if err != nil {
		t.Fatalf("apitest: file store: %v", err)
	}
	s.Files = files
	app := handlers.NewApp(cfg, logger, svc, authSvc, files)
	s.Server.Config.Handler = httpapi.NewRouter(app, nil)
	s.Start()
	t.Cleanup(s.Close)
	return s
}

// User registers an account and returns it with a fresh token pair.
func (s *Server) User(t testing.TB, name string) (*domain.User, auth.TokenPair) {
	t.Helper()
	u, err := s.Auth.Register(context.Background(), auth.RegisterInput{
		Username: name,
		Email:    name + "@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("apitest: register %s: %v", name, err)
	}
	pair, err := s.Auth.Issue(u.ID)
	if err != nil {
		t.Fatalf("apitest: issue tokens: %v", err)
	}
	return u, pair
}

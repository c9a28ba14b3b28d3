package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashendes/retail-api/internal/api"
	"github.com/ashendes/retail-api/internal/auth"
	"github.com/ashendes/retail-api/internal/config"
	"github.com/ashendes/retail-api/internal/orders"
	"github.com/ashendes/retail-api/internal/store"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func init() {
	// Initialize logger
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	log.SetLevel(cfg.LogLevel)
	if cfg.LogLevel < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open store: ", err)
	}
	defer closeStore()

	keys := newKeySource(cfg)
	deps := api.Deps{
		ServiceName: cfg.ServiceName,
		Store:       s,
		Orders:      orders.NewService(s),
		Authorizer: auth.NewChecker(keys, auth.CheckerOptions{
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
			Leeway:   cfg.Auth.Leeway,
		}),
	}
	if jwks, ok := keys.(*auth.JWKSKeySource); ok {
		deps.Circuits = jwks.Circuits
	}
	router := api.NewRouter(deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Graceful shutdown failed")
		}
	}()

	log.WithFields(log.Fields{
		"addr":   cfg.HTTPAddr,
		"driver": cfg.Database.Driver,
	}).Info("Retail service starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Failed to start server: ", err)
	}
	log.Info("Retail service stopped")
}

// openStore returns the configured store and a func that releases it
func openStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	if cfg.Database.Driver == store.DriverMemory {
		log.Warn("Using in-memory store; data is lost on exit")
		return store.NewMemoryStore(), func() {}, nil
	}

	gs, err := store.Open(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := gs.Migrate(ctx); err != nil {
			_ = gs.Close()
			return nil, nil, err
		}
		log.Info("Database schema migrated")
	}

	closeFn := func() {
		if err := gs.Close(); err != nil {
			log.WithError(err).Warn("Failed to close database")
		}
	}
	return gs, closeFn, nil
}

// newKeySource prefers the tenant's JWKS keys over a shared secret
func newKeySource(cfg config.Config) auth.KeySource {
	if cfg.Auth.Domain != "" {
		log.WithField("jwks_url", cfg.Auth.JWKSURL()).Info("Verifying RS256 tokens")
		return auth.NewJWKSKeySource(cfg.Auth.JWKSURL(), cfg.Auth.JWKSCacheTTL, cfg.ServiceName)
	}
	log.Warn("Verifying HS256 tokens with a shared secret")
	return auth.NewHMACKeySource(cfg.Auth.SigningSecret)
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/config"
	"storefront/internal/httpserver"
	"storefront/internal/kvstore"
	"storefront/internal/platform"
	"storefront/internal/session"
)

func main() {
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.FromEnv()
	if err != nil {
		logger.WithError(err).Fatal("load configuration")
	}

	adminHash := cfg.AdminPasswordHash
	if adminHash == "" {
		// Local development convenience: derive a hash for "password123"
		// when none is configured. Production sets ADMIN_PASSWORD_HASH.
		raw, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			logger.WithError(err).Fatal("derive fallback admin hash")
		}
		adminHash = string(raw)
		logger.Warn("ADMIN_PASSWORD_HASH not set; using development fallback credentials")
	}

	var sessionStore kvstore.Store = kvstore.NewMemory()
	if cfg.RedisAddr != "" {
		redisStore := kvstore.NewRedis(cfg.RedisAddr, cfg.RedisPassword, "storefront")
		defer redisStore.Close()
		sessionStore = redisStore
		logger.WithField("addr", cfg.RedisAddr).Info("sessions backed by redis")
	} else {
		logger.Info("sessions backed by process memory")
	}

	client := platform.New(cfg.PlatformURL, cfg.PlatformToken, logger)
	sessions := session.New(sessionStore, cfg.AdminEmail, adminHash, cfg.SessionTTL)

	srv := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Cart:           client,
		Catalog:        client,
		Sessions:       sessions,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("starting storefront api")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.WithField("signal", sig.String()).Info("shutting down")
	case err := <-serverErr:
		logger.WithError(err).Error("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	} else {
		logger.Info("server stopped")
	}
}

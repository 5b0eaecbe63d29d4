package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/migrate"
	"storefront/internal/sandbox"
	"storefront/internal/seed"
)

func main() {
	_ = godotenv.Load()

	logger := logrus.New()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.WithError(err).Fatal("load configuration")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.WithError(err).Fatal("connect db")
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		logger.WithError(err).Fatal("apply migrations")
	}

	store := sandbox.NewStore(pool, logger, cfg.SandboxTaxRate)
	inserted, err := seed.Apply(ctx, store)
	if err != nil {
		logger.WithError(err).Fatal("seed catalog")
	}

	logger.WithField("inserted", inserted).Info("seed complete")
}

package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"storefront/internal/config"
	"storefront/internal/importer"
	"storefront/internal/platform"
)

// Imports a catalog CSV into the commerce platform. Usage:
//
//	importer products.csv
func main() {
	_ = godotenv.Load()

	logger := logrus.New()

	if len(os.Args) != 2 {
		logger.Fatal("usage: importer <products.csv>")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		logger.WithError(err).Fatal("load configuration")
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		logger.WithError(err).Fatal("open csv")
	}
	defer f.Close()

	client := platform.New(cfg.PlatformURL, cfg.PlatformToken, logger)
	imp := importer.NewCSVImporter(f, client)

	count, err := imp.Run(context.Background())
	if err != nil {
		logger.WithError(err).WithField("imported", count).Fatal("import failed")
	}

	logger.WithField("imported", count).Info("import complete")
}

package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/aman7661/sumitTradingCompany/internal/auth"
	"github.com/aman7661/sumitTradingCompany/internal/bootstrap"
	"github.com/aman7661/sumitTradingCompany/internal/config"
	"github.com/aman7661/sumitTradingCompany/internal/metrics"
	"github.com/aman7661/sumitTradingCompany/internal/seed"
	"github.com/aman7661/sumitTradingCompany/internal/service"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "seed.yaml", "path to the YAML seed file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	cfg, err := config.LoadStore()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := bootstrap.NewLogger(*cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	f, err := os.Open(*file)
	if err != nil {
		logger.Fatal("failed to open seed file", zap.String("file", *file), zap.Error(err))
	}
	defer f.Close()

	data, err := seed.Parse(f)
	if err != nil {
		logger.Fatal("invalid seed file", zap.Error(err))
	}

	ctx := context.Background()
	store, closeStore, err := bootstrap.OpenStore(ctx, *cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()

	// Seeding never signs anyone in, so the token manager is never used to sign.
	users := service.NewUserService(store.Users, auth.NewTokenManager("", 0), logger)
	catalog := service.NewCatalogService(store.Products, metrics.New(), logger)

	if _, err := seed.NewSeeder(store, catalog, users, logger).Apply(ctx, data); err != nil {
		logger.Error("seeding failed", zap.Error(err))
		closeStore()
		os.Exit(1)
	}
}

package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"carbon-exchange/marketplace-backend/internal/config"
	"carbon-exchange/marketplace-backend/internal/escrow"
)

// Standalone escrow expiry worker, for deployments that keep sweeps off the
// API instances.
func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repo := escrow.NewRepository(db)
	service := escrow.NewService(repo, nil, nil,
		time.Duration(cfg.XRPL.EscrowCancelHours)*time.Hour, logger)

	worker := escrow.NewExpiryWorker(service, logger)
	if err := worker.Start(os.Getenv("EXPIRY_SCHEDULE")); err != nil {
		logger.Fatal("Failed to start expiry worker", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Stopping expiry worker...")
	worker.Stop()
}

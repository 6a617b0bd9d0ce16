package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"carbon-exchange/marketplace-backend/internal/auth"
	"carbon-exchange/marketplace-backend/internal/config"
	"carbon-exchange/marketplace-backend/internal/dashboard"
	"carbon-exchange/marketplace-backend/internal/escrow"
	"carbon-exchange/marketplace-backend/internal/ledger"
	"carbon-exchange/marketplace-backend/internal/notifications"
	"carbon-exchange/marketplace-backend/internal/retirements"
	"carbon-exchange/marketplace-backend/internal/tokens"
	"carbon-exchange/marketplace-backend/pkg/pdf"
	"carbon-exchange/marketplace-backend/pkg/storage"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Connect to database
	dbURL := cfg.Database.GetDatabaseURL()
	logger.Info("Connecting to database",
		zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))
	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxConnections)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	// Run migrations
	if cfg.Database.MigrationsPath != "" {
		m, err := migrate.New("file://"+cfg.Database.MigrationsPath, dbURL)
		if err != nil {
			logger.Fatal("Failed to initialize migrations", zap.Error(err))
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// Dashboard cache: Redis when reachable, in-memory otherwise
	var cache dashboard.Cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory cache", zap.Error(err))
		cache = dashboard.NewMemoryCache()
	} else {
		cache = dashboard.NewRedisCache(redisClient)
	}
	cancelPing()

	// Certificate object storage is optional in local dev
	var s3Client storage.S3Client
	if cfg.Storage.S3Bucket != "" {
		s3Client, err = storage.NewS3Client(context.Background(), cfg.Storage.S3Region)
		if err != nil {
			logger.Warn("S3 unavailable, certificate downloads disabled", zap.Error(err))
			s3Client = nil
		}
	}

	var ipfsClient storage.IPFSClient
	if cfg.Storage.IPFSGatewayURL != "" {
		ipfsClient = storage.NewIPFSClient(cfg.Storage.IPFSGatewayURL, cfg.Storage.IPFSAPIKey)
	}

	// Token and retirement stores: Postgres by default, JSON files when
	// DATABASE_FILE_PATH points at a directory
	var tokensRepo tokens.Repository
	var retirementsRepo retirements.Repository
	if cfg.Database.FilePath != "" {
		logger.Warn("Using JSON-file stores, Postgres remains authoritative in production",
			zap.String("path", cfg.Database.FilePath))
		tokensRepo = tokens.NewFileRepository(cfg.Database.FilePath + "/marketplace_tokens.json")
		retirementsRepo = retirements.NewFileRepository(cfg.Database.FilePath + "/retirement_certificates.json")
	} else {
		tokensRepo = tokens.NewRepository(db)
		retirementsRepo = retirements.NewRepository(db)
	}

	// Wire services
	hub := notifications.NewHub(logger)

	tokensService := tokens.NewService(tokensRepo, logger)
	tokensHandler := tokens.NewHandler(tokensService, ipfsClient, logger)

	retirementsService := retirements.NewService(
		retirementsRepo, pdf.NewGenerator(), s3Client, cfg.Storage.S3Bucket, logger)
	retirementsHandler := retirements.NewHandler(retirementsService, logger)

	escrowRepo := escrow.NewRepository(db)
	escrowService := escrow.NewService(escrowRepo, tokensService, hub,
		time.Duration(cfg.XRPL.EscrowCancelHours)*time.Hour, logger)
	escrowHandler := escrow.NewHandler(escrowService, logger)

	expiryWorker := escrow.NewExpiryWorker(escrowService, logger)
	if err := expiryWorker.Start(""); err != nil {
		logger.Fatal("Failed to start expiry worker", zap.Error(err))
	}
	defer expiryWorker.Stop()

	ledgerClient := ledger.NewClient(cfg.XRPL.RPCURL, cfg.XRPL.RequestTimeout, logger)
	ledgerHandler := ledger.NewHandler(ledgerClient, logger)

	authService := auth.NewService(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	authHandler := auth.NewHandler(authService)

	dashboardService := dashboard.NewService(db, cache, logger)
	dashboardHandler := dashboard.NewHandler(dashboardService, logger)

	// Setup router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register routes
	api := router.Group("/api/v1")
	{
		authHandler.RegisterRoutes(api)
		retirementsHandler.RegisterRoutes(api)
		ledgerHandler.RegisterRoutes(api)
		dashboardHandler.RegisterRoutes(api)

		protected := api.Group("")
		protected.Use(auth.Middleware(authService))
		tokensHandler.RegisterRoutes(api, protected)
		escrowHandler.RegisterRoutes(protected)
	}

	router.GET("/ws", hub.HandleWS)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.Int("port", cfg.Server.Port))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

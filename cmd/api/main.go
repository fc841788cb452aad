package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"wealthsync/internal/config"
	"wealthsync/internal/database"
	"wealthsync/internal/handlers"
	"wealthsync/internal/logger"
	"wealthsync/internal/middleware"
	"wealthsync/internal/pricing"
	"wealthsync/internal/refresh"
	"wealthsync/internal/services"
	"wealthsync/internal/validator"

	_ "wealthsync/internal/docs" // Import swagger docs
)

// @title           WealthSync API
// @version         1.0
// @description     WealthSync tracks a user's net worth: assets (with real-time crypto and stock prices), portfolios and debts.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey PipelineKey
// @in header
// @name X-API-Key

const shutdownTimeout = 15 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("failed to close database: %v", err)
		}
	}()

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Price providers
	registry, closeCache, err := newPriceRegistry(ctx, appConfig)
	if err != nil {
		return err
	}
	defer closeCache()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	portfolioService := services.NewPortfolioService(db)
	assetService := services.NewAssetService(db, registry)
	debtService := services.NewDebtService(db)
	summaryService := services.NewSummaryService(db, appConfig.CoinGeckoVsCurrency)
	auditService := services.NewAuditService(db)

	// Price refresher
	var refreshController handlers.RefreshController
	if appConfig.RefreshEnabled {
		refresher := refresh.New(services.NewAssetStore(db), registry, refresh.Options{
			Interval:     appConfig.RefreshInterval,
			InitialDelay: appConfig.RefreshInitialDelay,
			FetchTimeout: appConfig.PriceFetchTimeout,
		})
		refresherDone := make(chan struct{})
		go func() {
			defer close(refresherDone)
			refresher.Start(ctx)
		}()
		// Runs before the database is closed.
		defer func() {
			stop()
			<-refresherDone
			refresher.Wait()
		}()
		refreshController = refresher
	} else {
		log.Info("Price refresh is disabled")
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService, auditService)
	assetHandler := handlers.NewAssetHandler(assetService, auditService)
	debtHandler := handlers.NewDebtHandler(debtService, auditService)
	summaryHandler := handlers.NewSummaryHandler(summaryService)
	pipelineHandler := handlers.NewPipelineHandler(ctx, refreshController)

	validator.Register()

	// Initialize Gin router
	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Pipeline routes (API key)
	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(appConfig.PipelineAPIKey))
	pipeline.POST("/refresh", pipelineHandler.TriggerRefresh)
	pipeline.GET("/refresh/status", pipelineHandler.RefreshStatus)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile and overview
	protected.GET("/profile", authHandler.GetProfile)
	protected.GET("/summary", summaryHandler.GetNetWorth)

	// Portfolio routes
	portfolios := protected.Group("/portfolios")
	portfolios.POST("", portfolioHandler.CreatePortfolio)
	portfolios.GET("", portfolioHandler.GetUserPortfolios)
	portfolios.GET("/:id", portfolioHandler.GetPortfolioByID)
	portfolios.PUT("/:id", portfolioHandler.UpdatePortfolio)
	portfolios.DELETE("/:id", portfolioHandler.DeletePortfolio)

	// Asset routes
	assets := protected.Group("/assets")
	assets.POST("", assetHandler.CreateAsset)
	assets.GET("", assetHandler.GetUserAssets)
	assets.GET("/:id", assetHandler.GetAssetByID)
	assets.PUT("/:id", assetHandler.UpdateAsset)
	assets.DELETE("/:id", assetHandler.DeleteAsset)

	// Debt routes
	debts := protected.Group("/debts")
	debts.POST("", debtHandler.CreateDebt)
	debts.GET("", debtHandler.GetUserDebts)
	debts.GET("/:id", debtHandler.GetDebtByID)
	debts.PUT("/:id", debtHandler.UpdateDebt)
	debts.DELETE("/:id", debtHandler.DeleteDebt)

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting WealthSync backend server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

// newPriceRegistry builds the CoinGecko and Alpha Vantage providers behind a
// shared price cache. Redis is used when REDIS_ADDR is set, otherwise the
// cache lives in process memory.
func newPriceRegistry(ctx context.Context, cfg *config.Config) (*pricing.Registry, func(), error) {
	log := logger.Get()
	httpClient := &http.Client{Timeout: cfg.PriceFetchTimeout}

	cgOpts := []pricing.CoinGeckoOption{
		pricing.WithCoinGeckoURL(cfg.CoinGeckoURL),
		pricing.WithVsCurrency(cfg.CoinGeckoVsCurrency),
	}
	if cfg.CoinGeckoSymbolMapFile != "" {
		symbols, err := pricing.LoadSymbolMap(cfg.CoinGeckoSymbolMapFile)
		if err != nil {
			return nil, nil, err
		}
		log.Infof("Loaded %d CoinGecko symbol mappings from %s", len(symbols), cfg.CoinGeckoSymbolMapFile)
		cgOpts = append(cgOpts, pricing.WithSymbolMap(symbols))
	}

	var cache pricing.PriceCache = pricing.NewMemoryCache()
	closeFn := func() {}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Infof("Using redis price cache at %s", cfg.RedisAddr)
		cache = pricing.NewRedisCache(client)
		closeFn = func() { _ = client.Close() }
	}

	if cfg.AlphaVantageAPIKey == "" {
		log.Warn("ALPHA_VANTAGE_API_KEY is not set; stock prices will be unavailable")
	}

	registry := pricing.NewRegistry(
		pricing.NewCached(pricing.NewCoinGeckoProvider(httpClient, cgOpts...), cache, cfg.PriceCacheTTL),
		pricing.NewCached(pricing.NewAlphaVantageProvider(httpClient, cfg.AlphaVantageURL, cfg.AlphaVantageAPIKey), cache, cfg.PriceCacheTTL),
	)
	return registry, closeFn, nil
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/client"
	"github.com/yourorg/portfolio-insights/internal/config"
	"github.com/yourorg/portfolio-insights/internal/handler"
	"github.com/yourorg/portfolio-insights/internal/kafka"
	"github.com/yourorg/portfolio-insights/internal/middleware"
	"github.com/yourorg/portfolio-insights/internal/repository"
	"github.com/yourorg/portfolio-insights/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set up logger
	logger, err := createLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Connect to database
	db, err := connectToDB(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	portfolioRepo := repository.NewPortfolioRepository(db, logger)
	watchlistRepo := repository.NewWatchlistRepository(db, logger)
	alertRepo := repository.NewAlertRepository(db, logger)
	sipPlanRepo := repository.NewSIPPlanRepository(db, logger)

	// Initialize clients
	marketClient := client.NewMarketDataClient(cfg.MarketData, logger)
	symbolsClient := client.NewSymbolDirectoryClient(
		cfg.MarketData.SymbolDirectoryURL,
		&http.Client{Timeout: cfg.MarketData.RequestTimeout},
		logger,
	)

	// Initialize Kafka producer for alert events
	var producer *kafka.Producer
	if cfg.Kafka.Brokers != "" {
		producer = kafka.NewProducer(strings.Split(cfg.Kafka.Brokers, ","), cfg.Kafka.ClientID, logger)
		defer producer.Close()
	}

	// Initialize services
	fetchCache := service.NewFetchCache(marketClient, cfg.Cache, logger)
	bulkFetcher := service.NewBulkFetcher(fetchCache, cfg.Cache.BulkWorkers, logger)
	riskEngine := service.NewRiskEngine(logger)
	sipCalculator := service.NewSIPCalculator(logger)
	marketStatus := service.NewMarketStatusService()
	symbolService := service.NewSymbolService(symbolsClient, cfg.Cache.SymbolsTTL, logger)
	portfolioService := service.NewPortfolioService(portfolioRepo, fetchCache, bulkFetcher, riskEngine, logger)

	var alertPublisher service.AlertPublisher
	if producer != nil {
		alertPublisher = producer
	}
	alertService := service.NewAlertService(
		alertRepo,
		fetchCache,
		alertPublisher,
		cfg.Kafka.Topics["alertEvents"],
		logger,
	)

	// Initialize handlers
	marketDataHandler := handler.NewMarketDataHandler(fetchCache, bulkFetcher, marketStatus, logger)
	riskHandler := handler.NewRiskHandler(riskEngine, fetchCache, bulkFetcher, logger)
	sipHandler := handler.NewSIPHandler(sipCalculator, sipPlanRepo, logger)
	portfolioHandler := handler.NewPortfolioHandler(portfolioRepo, portfolioService, logger)
	watchlistHandler := handler.NewWatchlistHandler(watchlistRepo, fetchCache, logger)
	alertHandler := handler.NewAlertHandler(alertRepo, alertService, logger)
	symbolHandler := handler.NewSymbolHandler(symbolService, logger)
	dashboardHandler := handler.NewDashboardHandler(portfolioService, marketStatus, logger)

	// Schedule the alert sweep
	scheduler := cron.New()
	if cfg.Alerts.Enabled {
		_, err := scheduler.AddFunc(cfg.Alerts.Schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			alertService.CheckAlerts(ctx)
		})
		if err != nil {
			logger.Fatal("Failed to schedule alert sweep", zap.Error(err))
		}
		scheduler.Start()
		logger.Info("Alert sweep scheduled", zap.String("schedule", cfg.Alerts.Schedule))
	}

	// Set up HTTP server with Gin
	router := setupRouter(
		marketDataHandler,
		riskHandler,
		sipHandler,
		portfolioHandler,
		watchlistHandler,
		alertHandler,
		symbolHandler,
		dashboardHandler,
		logger,
		cfg,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop the sweep first so no new alert work starts during shutdown
	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

func createLogger(level string) (*zap.Logger, error) {
	// Parse log level
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	// Create logger config
	config := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

func connectToDB(dbConfig config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName,
		dbConfig.SSLMode,
	)

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(dbConfig.MaxOpenConns)
	db.SetMaxIdleConns(dbConfig.MaxIdleConns)
	db.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	return db, nil
}

func setupRouter(
	marketDataHandler *handler.MarketDataHandler,
	riskHandler *handler.RiskHandler,
	sipHandler *handler.SIPHandler,
	portfolioHandler *handler.PortfolioHandler,
	watchlistHandler *handler.WatchlistHandler,
	alertHandler *handler.AlertHandler,
	symbolHandler *handler.SymbolHandler,
	dashboardHandler *handler.DashboardHandler,
	logger *zap.Logger,
	cfg *config.Config,
) *gin.Engine {
	router := gin.New()

	// Use middlewares
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		// Market data routes
		marketData := v1.Group("/market-data")
		{
			marketData.GET("/series", marketDataHandler.GetSeries)
			marketData.GET("/quote/:symbol", marketDataHandler.GetQuote)
			marketData.POST("/bulk", marketDataHandler.GetBulk)
			marketData.GET("/status", marketDataHandler.GetMarketStatus)
		}

		// Risk analytics routes
		risk := v1.Group("/risk")
		{
			risk.GET("/metrics/:symbol", riskHandler.GetMetrics)
			risk.POST("/position-size", riskHandler.PositionSize)
			risk.POST("/risk-reward", riskHandler.RiskReward)
			risk.POST("/portfolio", riskHandler.PortfolioRisk)
		}

		// SIP projection routes
		sip := v1.Group("/sip")
		{
			sip.POST("/calculate", sipHandler.Calculate)
			sip.POST("/retirement", sipHandler.RetirementCorpus)
			sip.POST("/plans", sipHandler.SavePlan)
			sip.GET("/plans", sipHandler.ListPlans)
			sip.GET("/plans/:id/run", sipHandler.RunPlan)
			sip.DELETE("/plans/:id", sipHandler.DeletePlan)
		}

		// Portfolio routes
		portfolios := v1.Group("/portfolios")
		{
			portfolios.POST("", portfolioHandler.CreatePortfolio)
			portfolios.GET("", portfolioHandler.ListPortfolios)
			portfolios.GET("/:id", portfolioHandler.GetPortfolio)
			portfolios.DELETE("/:id", portfolioHandler.DeletePortfolio)
			portfolios.POST("/:id/holdings", portfolioHandler.AddHolding)
			portfolios.DELETE("/:id/holdings/:holdingId", portfolioHandler.RemoveHolding)
			portfolios.GET("/:id/performance", portfolioHandler.GetPerformance)
			portfolios.POST("/:id/refresh", portfolioHandler.RefreshPrices)
		}

		// Watchlist routes
		watchlist := v1.Group("/watchlist")
		{
			watchlist.POST("", watchlistHandler.Add)
			watchlist.GET("", watchlistHandler.List)
			watchlist.DELETE("/:symbol", watchlistHandler.Remove)
		}

		// Alert routes
		alerts := v1.Group("/alerts")
		{
			alerts.POST("", alertHandler.Create)
			alerts.GET("", alertHandler.List)
			alerts.DELETE("/:id", alertHandler.Delete)
		}

		// Symbol directory routes
		symbols := v1.Group("/symbols")
		{
			symbols.GET("", symbolHandler.List)
			symbols.GET("/search", symbolHandler.Search)
		}

		// Dashboard routes
		dashboard := v1.Group("/dashboard")
		{
			dashboard.GET("/overview", dashboardHandler.Overview)
			dashboard.GET("/trending", dashboardHandler.Trending)
		}

		// Service-to-service routes (requires service key)
		svc := v1.Group("/service")
		svc.Use(middleware.ServiceAuthMiddleware(cfg.ServiceKey, logger))
		{
			svc.POST("/alerts/check", alertHandler.CheckNow)
		}
	}
	return router
}

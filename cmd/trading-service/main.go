package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-news-trader/internal/trader/broker"
	"stock-news-trader/internal/trader/config"
	"stock-news-trader/internal/trader/delivery/consumer"
	delivery "stock-news-trader/internal/trader/delivery/http"
	_ "stock-news-trader/internal/trader/docs"
	"stock-news-trader/internal/trader/mapping"
	"stock-news-trader/internal/trader/repository"
	"stock-news-trader/internal/trader/risk"
	"stock-news-trader/internal/trader/service"
	"stock-news-trader/pkg/common"
	"stock-news-trader/pkg/logger"
	"stock-news-trader/pkg/postgres"
	"stock-news-trader/pkg/redis"
	"stock-news-trader/pkg/telegram"

	"google.golang.org/genai"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the trading service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Trading Service", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	// Create the consumer group if it doesn't exist
	// MKSTREAM creates the stream if it doesn't exist
	if err := redisClient.XGroupCreateMkStream(context.Background(), common.RedisStreamSignalExecution, common.RedisStreamGroup, "0").Err(); err != nil {
		if err.Error() != "BUSYGROUP Consumer Group name already exists" {
			appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err))
		}
	}

	// Initialize repositories
	store := repository.NewStore(db.DB)
	aliasRepo := repository.NewTickerAliasRepository(db.DB)
	mapper := mapping.NewMapper(aliasRepo)

	var feedRepo repository.NewsFeedRepository
	switch cfg.Ingest.Provider {
	case "rss":
		feedRepo = repository.NewRSSFeedRepository(cfg, appLogger)
	case "sample":
		feedRepo = repository.NewSampleFeedRepository()
	default:
		appLogger.Fatal("Invalid ingest provider specified in config", logger.Field("provider", cfg.Ingest.Provider))
	}

	// Initialize analyzer provider
	var analyzerRepo repository.NewsAnalyzerRepository
	switch cfg.AI.Provider {
	case "gemini":
		genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: cfg.Gemini.APIKey,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini AI client", logger.ErrorField(err))
		}
		repo, err := repository.NewGeminiAnalyzerRepository(cfg, appLogger, genAiClient)
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini analyzer repository", logger.ErrorField(err))
		}
		analyzerRepo = repo
	default:
		analyzerRepo = repository.NewHeuristicAnalyzerRepository()
	}

	// Initialize broker
	var orderBroker broker.Broker
	switch cfg.Broker.Driver {
	case "kis":
		orderBroker = broker.NewKISBroker(cfg.KIS, appLogger)
	case "paper":
		orderBroker = broker.NewPaperBroker(cfg.Broker.Paper)
	default:
		appLogger.Fatal("Invalid broker driver specified in config", logger.Field("driver", cfg.Broker.Driver))
	}
	appLogger.Info("Broker initialized", logger.Field("broker", orderBroker.Name()))

	// Risk controls
	killSwitch := risk.NewKillSwitch()
	gate := risk.NewGate(killSwitch)

	// Telegram notifier is optional for local drills
	var telegramNotifier telegram.Notifier
	if cfg.Telegram.BotToken != "" {
		telegramNotifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
	} else {
		appLogger.Warn("Telegram bot token not configured, notifications disabled")
	}

	// Initialize services
	signalSvc := service.NewSignalService(cfg, appLogger, redisClient.Client, store, feedRepo, mapper, analyzerRepo, telegramNotifier)
	executionSvc := service.NewExecutionService(cfg, appLogger, redisClient.Client, store, gate, orderBroker, telegramNotifier)

	// Initialize and start the Redis consumer
	redisConsumer := consumer.NewRedisConsumer(cfg, redisClient.Client, signalSvc, executionSvc, appLogger)
	redisConsumer.Start(ctx)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Initialize handlers and routes
	apiV1 := e.Group("/api/v1")

	opsHandler := delivery.NewOpsHandler(db.DB, redisClient.Client, orderBroker, killSwitch, store, appLogger)
	opsHandler.RegisterRoutes(apiV1)

	positionHandler := delivery.NewPositionHandler(store, appLogger)
	positionHandler.RegisterRoutes(apiV1.Group("/positions"))

	signalHandler := delivery.NewSignalHandler(store, appLogger)
	signalHandler.RegisterRoutes(apiV1.Group("/signals"))

	e.GET("/swagger/*", swagger.WrapHandler)

	// Start server
	go func() {
		addr := cfg.API.Addr()
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	appLogger.Info("Trading service started. Waiting for signals...")

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down trading service...")

	// Gracefully shutdown the server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.ErrorField(err))
	}
	redisConsumer.Stop()

	appLogger.Info("Trading service stopped.")
}

// @title Stock News Trader API
// @version 1.0
// @description Admin and ops surface for the news-to-position trading pipeline.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "trading-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-trader.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing trading-service CLI: %s\n", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/mkotelnikov/quizbot/internal/api"
	"github.com/mkotelnikov/quizbot/internal/config"
	"github.com/mkotelnikov/quizbot/internal/database"
	"github.com/mkotelnikov/quizbot/internal/game"
	"github.com/mkotelnikov/quizbot/internal/repositories"
	"github.com/mkotelnikov/quizbot/internal/vk"
	"github.com/mkotelnikov/quizbot/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize logger
	logger.Init()
	defer logger.Sync()

	logger.Info("Starting VK Quiz Bot...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", err)
	}

	// Validate production security settings
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
		logger.Info("Production security validation passed")
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}

	// Run GORM auto-migration
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Seed starter questions
	if err := database.SeedQuestions(db); err != nil {
		logger.Warn("Failed to seed questions", "error", err)
	}

	userRepo := repositories.NewUserRepository(db)
	quizRepo := repositories.NewQuizRepository(db)
	gameRepo := repositories.NewGameRepository(db)
	adminRepo := repositories.NewAdminRepository(db)

	// Bootstrap the admin panel account
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := adminRepo.EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Fatal("Failed to ensure admin account", err)
		}
	}

	// Connect to VK
	client := vk.NewClient(cfg.BotToken, cfg.GroupID)
	if err := client.Connect(); err != nil {
		logger.Fatal("Failed to connect to VK", err)
	}

	// Game pipeline: poller -> dispatcher -> machine, with the
	// scheduler feeding timeouts back through the dispatcher.
	scheduler := game.NewTimeoutScheduler(cfg.GetAnswerTimeout())
	machine := game.NewMachine(gameRepo, quizRepo, userRepo, client, scheduler, uint(cfg.GameThemeID))
	dispatcher := game.NewDispatcher(machine, cfg.ChatQueueSize, cfg.GetChatIdleTTL())
	scheduler.Bind(dispatcher.Route)

	poller := vk.NewPoller(client, dispatcher.Route)
	poller.Start()

	// Optional Redis-backed stats cache
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}

	// Admin API
	router := api.NewRouter(api.RouterConfig{
		JWTSecret:      cfg.JWTSecret,
		RateLimitPerIP: cfg.RateLimitPerIP,
		Admins:         adminRepo,
		Games:          gameRepo,
		Quiz:           quizRepo,
		Cache:          api.NewStatsCache(redisClient, time.Minute),
		AppEnv:         cfg.AppEnv,
	})
	server := &http.Server{
		Addr:         ":" + cfg.AdminPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Admin API server failed", err)
		}
	}()

	logger.Info("Bot started successfully", "env", cfg.AppEnv, "admin_port", cfg.AdminPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully...")

	poller.Stop()
	scheduler.Stop()
	dispatcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("Admin API shutdown failed", "error", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Warn("Redis close failed", "error", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info("Bot stopped")
}

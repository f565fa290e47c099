package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"upkeep/database"
	"upkeep/internal/api/handler"
	"upkeep/internal/api/middleware"
	"upkeep/internal/api/repository"
	"upkeep/internal/api/service"
	"upkeep/internal/config"
	"upkeep/internal/realtime"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg)

	db, err := database.Connect(cfg, logger)
	if err != nil {
		log.Fatalf("could not connect database: %v", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("invalid redis url: %v", err)
	}
	if cfg.RedisPassword != "" {
		redisOpts.Password = cfg.RedisPassword
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	publisher := realtime.NewPublisher(rdb)
	notificationRepo := repository.NewNotificationRepository(db)
	subscriptionRepo := repository.NewPushSubscriptionRepository(db)
	notificationSvc := service.NewNotificationService(notificationRepo, subscriptionRepo, publisher, logger)

	r := gin.Default()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := r.Group("/api/notifications")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	handler.NewNotificationHandler(notificationSvc).RegisterRoutes(protected)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info("notification api listening", "addr", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"botpanel/backend/internal/config"
	"botpanel/backend/internal/handler"
	"botpanel/backend/internal/metrics"
	"botpanel/backend/internal/middleware"
	"botpanel/backend/internal/service"
	"botpanel/backend/pkg/logger"
	"botpanel/backend/pkg/panelapi"
	"botpanel/backend/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file (ignore error in production)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log := logger.GetLogger()

	log.Info("Starting bot panel...")
	log.Infof("Environment: %s", cfg.Server.Env)
	log.Infof("Bot server: %s", cfg.Upstream.BaseURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := metrics.New()
	client := panelapi.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)

	session, err := service.NewSession(cfg, client, reg, log)
	if err != nil {
		log.Fatal("Failed to create panel session", err)
	}

	hub := service.NewWSHub(session.Renderer.Snapshot, reg)
	go hub.Run(ctx)

	// Viewers get changes straight from the renderer, or through Redis when
	// the mirror is enabled so other panel processes see the same stream
	var redisPinger handler.Pinger
	var notifications *service.NotificationService
	if cfg.Redis.Enabled {
		log.Info("Connecting to Redis...")
		redisClient, err := redis.New(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", err)
		}
		defer redisClient.Close()
		log.Info("✓ Redis connected")

		redisPinger = redisClient
		notifications = service.NewNotificationService(redisClient, session.Renderer.Snapshot,
			cfg.Redis.Panel, cfg.Redis.SnapshotTTL, 250*time.Millisecond)
		session.Renderer.Subscribe(notifications.NotifyChange)
		go hub.StartPubSubListener(ctx, redisClient, notifications.Channel())
	} else {
		session.Renderer.Subscribe(hub.BroadcastChange)
	}

	session.Start(ctx)

	// Set Gin mode
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Apply middleware
	router.Use(middleware.Recovery(log))                      // Panic recovery
	router.Use(middleware.RequestID())                        // Request ID
	router.Use(middleware.Logger(log, "/health", "/metrics")) // Request logging
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))      // CORS

	viewHandler := handler.NewViewHandler(session, hub)
	healthHandler := handler.NewHealthHandler(session, hub, redisPinger)

	router.GET("/health", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(reg.Handler()))
	router.GET("/ws/view", hub.ServeWS)

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message": "pong",
				"time":    time.Now().Unix(),
			})
		})

		v1.GET("/view", viewHandler.GetView)
		v1.GET("/view/slots/:id", viewHandler.GetSlot)
		v1.GET("/view/tables/:id", viewHandler.GetTable)
		v1.GET("/view/timer", viewHandler.GetTimer)
		v1.GET("/channels", viewHandler.GetChannels)
		v1.POST("/refresh", middleware.RefreshRateLimit(cfg.RateLimit.RefreshPerMinute), viewHandler.RequestRefresh)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:        cfg.Server.Address(),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Infof("Server starting on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", err)
		}
	}()

	log.Info("✓ Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	session.Stop()
	if notifications != nil {
		notifications.Stop()
	}
	cancel()

	// Graceful shutdown with 5 second timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err)
	}

	log.Info("Server exited")
}

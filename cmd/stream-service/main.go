package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-stream/internal/api/handlers"
	"auction-stream/internal/config"
	"auction-stream/internal/infrastructure/google"
	"auction-stream/internal/infrastructure/mysql"
	"auction-stream/internal/infrastructure/redis"
	"auction-stream/internal/infrastructure/smtp"
	ws "auction-stream/internal/infrastructure/websocket"
	"auction-stream/internal/services"
	"auction-stream/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	log := logger.New()
	log.Info("Starting Auction Stream Service")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("Failed to connect to MySQL", "error", err)
		os.Exit(1)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.Error("Failed to close MySQL connection", "error", err)
		}
	}(db)

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	// Test MySQL connection
	if err := db.PingContext(ctx); err != nil {
		log.Error("Failed to ping MySQL", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to MySQL")

	// Create tables on startup
	if err := mysql.EnsureSchema(ctx, db); err != nil {
		log.Error("Failed to ensure schema", "error", err)
		os.Exit(1)
	}

	// Initialize repositories and caches
	userRepo := mysql.NewMySQLUserRepository(db)
	sessionRepo := mysql.NewMySQLSessionRepository(db)
	sessionCache := redis.NewRedisSessionCache(rdb)

	// Initialize auth
	verifier := google.NewTokenVerifier(cfg.Google.ClientID)
	authService := services.NewAuthService(verifier, userRepo, sessionRepo,
		sessionCache, cfg.Session.TTL, log)

	// Initialize notifications
	mailer := smtp.NewGomailMailer(cfg.SMTP, log)
	notifier := services.NewNotificationService(userRepo, mailer, log)

	// Initialize the room
	registry := services.NewRegistry(log)
	broadcaster := services.NewBroadcaster(registry, log)
	room := services.NewRoom(registry, broadcaster, log)

	// Initialize session cleanup
	cleaner := services.NewSessionCleaner(sessionRepo, log)
	if err := cleaner.Start(); err != nil {
		log.Error("Failed to start session cleaner", "error", err)
		os.Exit(1)
	}

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}","host":"${host}","method":"${method}","uri":"${uri}","user_agent":"${user_agent}","status":${status},"error":"${error}","latency":${latency},"latency_human":"${latency_human}","bytes_in":${bytes_in},"bytes_out":${bytes_out}}` + "\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET, echo.HEAD, echo.PUT, echo.PATCH,
			echo.POST, echo.DELETE, echo.OPTIONS,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, log)
	roomHandler := handlers.NewRoomHandler(room, log)
	wsHandler := ws.NewHandler(room, authService, notifier, log)

	// Pages
	e.GET("/", roomHandler.Root)
	e.GET("/stream", roomHandler.StreamPage)
	e.GET("/start_stream", roomHandler.StartStreamPage)
	e.Static("/static", "static")

	// WebSocket
	e.GET("/ws", wsHandler.HandleConnection)

	// Auth routes
	e.POST("/auth/google", authHandler.GoogleLogin)
	e.GET("/auth/me", authHandler.Me)
	e.POST("/auth/logout", authHandler.Logout)

	// Health check endpoint
	e.GET("/health", roomHandler.Health)

	// Start server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down auction stream service...")

	// Graceful shutdown
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cleaner.Stop()

	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Auction stream service stopped")
}

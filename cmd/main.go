package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/nexora-club/membership-backend/config"
	"github.com/nexora-club/membership-backend/db"
	"github.com/nexora-club/membership-backend/handlers"
	"github.com/nexora-club/membership-backend/live"
	"github.com/nexora-club/membership-backend/repositories"
	api "github.com/nexora-club/membership-backend/routes"
	"github.com/nexora-club/membership-backend/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.JWTSecretKey == config.DefaultJWTSecret {
		logger.Warn("JWT_SECRET_KEY is not set, using the insecure development key")
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	hub := live.NewHub(logger)
	go hub.Run()

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	taskRepo := repositories.NewPostgresTaskRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	announcementRepo := repositories.NewPostgresAnnouncementRepository(dbConn)

	tokenService := services.NewTokenService(cfg.JWTSecretKey)
	verifier := services.NewGoogleVerifier(cfg.GoogleTokenInfoURL)

	authService := services.NewAuthService(userRepo, tokenService, verifier)
	userService := services.NewUserService(userRepo)
	teamService := services.NewTeamService(teamRepo, userRepo, taskRepo, hub)
	taskService := services.NewTaskService(taskRepo, teamRepo, userRepo, hub)
	eventService := services.NewEventService(eventRepo)
	announcementService := services.NewAnnouncementService(announcementRepo)
	logger.Info("services initialized")

	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService)
	teamHandler := handlers.NewTeamHandler(teamService)
	taskHandler := handlers.NewTaskHandler(taskService)
	eventHandler := handlers.NewEventHandler(eventService)
	announcementHandler := handlers.NewAnnouncementHandler(announcementService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, teamService)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		tokenService,
		authHandler,
		userHandler,
		teamHandler,
		taskHandler,
		eventHandler,
		announcementHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
	}
	logger.Info("application exited")
}

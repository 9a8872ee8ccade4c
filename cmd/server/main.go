// Task chat server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/taskchat/internal/api"
	"github.com/ashureev/taskchat/internal/chat"
	"github.com/ashureev/taskchat/internal/config"
	"github.com/ashureev/taskchat/internal/dialogue"
	"github.com/ashureev/taskchat/internal/dispatch"
	"github.com/ashureev/taskchat/internal/health"
	"github.com/ashureev/taskchat/internal/identity"
	"github.com/ashureev/taskchat/internal/middleware"
	"github.com/ashureev/taskchat/internal/shared"
	"github.com/ashureev/taskchat/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "grpc_port", cfg.GRPCPort, "container", config.IsContainer())
	if cfg.AllowsAnyOrigin() {
		slog.Warn("CORS allows any origin; set CORS_ALLOWED_ORIGINS to restrict it")
	}

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath, store.WithRetryPolicy(shared.RetryPolicy{
		MaxAttempts: cfg.Retry.DatabaseMaxRetries,
		BaseDelay:   cfg.Retry.DatabaseRetryBaseDelay,
	}))
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected", "path", cfg.DBPath)

	// Initialize services.
	dialogues := dialogue.NewRegistry()
	router := dispatch.NewRouter(repo, identity.NewRegistrar(repo), dialogues)
	sm := chat.NewSessionManager()

	// Initialize handlers.
	baseHandler := api.NewHandler(router)
	eventHandler := api.NewEventHandler(baseHandler)
	healthHandler := api.NewHealthHandler(repo, cfg)
	wsHandler := chat.NewWebSocketHandler(router, sm, cfg.AllowedOrigins)
	wsLimiter := middleware.NewRateLimiter(cfg.RateLimit.Events, cfg.RateLimit.Window)
	wsHandler.SetRateLimiter(wsLimiter)
	httpLimiter := middleware.NewRateLimiter(cfg.RateLimit.Events, cfg.RateLimit.Window)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	healthHandler.RegisterHealth(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(httpLimiter))
		eventHandler.RegisterRoutes(r)
	})

	// WebSocket endpoint.
	r.Get("/ws/chat", wsHandler.ServeHTTP)

	// No WriteTimeout: WebSocket sessions are long-lived.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go wsLimiter.Run(ctx)
	go httpLimiter.Run(ctx)

	dialogue.StartSweeper(ctx, dialogues, cfg.Dialogue.SweepInterval, cfg.Dialogue.IdleTTL)

	// Optional gRPC health endpoint.
	var healthSvc *health.Service
	var grpcStop func()
	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			slog.Error("Failed to listen for gRPC", "error", err, "port", cfg.GRPCPort)
			os.Exit(1)
		}
		healthSvc = health.NewService(repo, cfg.Timeout.HealthCheck, logger)
		grpcServer := healthSvc.NewServer()
		grpcStop = grpcServer.GracefulStop
		go healthSvc.Run(ctx, cfg.Timeout.HealthCheck*2)
		go func() {
			slog.Info("gRPC health listening", "addr", lis.Addr().String())
			if err := grpcServer.Serve(lis); err != nil {
				slog.Error("gRPC server failed", "error", err)
			}
		}()
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	if healthSvc != nil {
		healthSvc.Shutdown()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout.Shutdown)
	defer cancel()

	// Hijacked WebSocket connections are not closed by Shutdown.
	sm.CloseAll()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	if grpcStop != nil {
		grpcStop()
	}

	slog.Info("Server stopped successfully", "dialogues_dropped", dialogues.Len())
}

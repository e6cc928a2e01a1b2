package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/welldanyogia/auth-ledger/internal/auth"
	"github.com/welldanyogia/auth-ledger/internal/config"
	"github.com/welldanyogia/auth-ledger/internal/health"
	"github.com/welldanyogia/auth-ledger/internal/logger"
	"github.com/welldanyogia/auth-ledger/internal/metrics"
	custommw "github.com/welldanyogia/auth-ledger/internal/middleware"
	"github.com/welldanyogia/auth-ledger/internal/repository"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	log := logger.New(logger.DefaultConfig())

	db, err := repository.Open(cfg.Database.Engine, cfg.Database.DSN())
	if err != nil {
		log.Error("failed to open database", "engine", cfg.Database.Engine, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.Migrate(db, cfg.Database.Engine); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	log.Info("database ready", "engine", cfg.Database.Engine)

	// Repositories and services
	userRepo := repository.NewUserRepository(db)
	loginHistRepo := repository.NewLoginHistoryRepository(db)
	logoutHistRepo := repository.NewLogoutHistoryRepository(db)

	hasher := auth.NewPasswordHasher()
	authService := auth.NewAuthService(userRepo, loginHistRepo, logoutHistRepo, hasher, log)
	sessions := auth.NewSessionRegistry()
	authHandler := auth.NewAuthHandler(authService, sessions)

	healthHandler := health.NewHandler(health.Config{
		DB:      db,
		Version: version,
	})

	dbStats := metrics.NewDBStatsCollector(db.DB)
	dbStats.Start(15 * time.Second)
	defer dbStats.Stop()

	// Router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(custommw.StructuredLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Session-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/health/ready", healthHandler.Readiness)
	r.Get("/health/live", healthHandler.Liveness)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	auth.RegisterRoutes(r, authHandler, sessions)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	healthHandler.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server exited")
}

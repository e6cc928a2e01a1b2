package main

import (
	"context"
	"os"

	"github.com/welldanyogia/auth-ledger/internal/auth"
	"github.com/welldanyogia/auth-ledger/internal/config"
	"github.com/welldanyogia/auth-ledger/internal/console"
	"github.com/welldanyogia/auth-ledger/internal/logger"
	"github.com/welldanyogia/auth-ledger/internal/repository"
)

func main() {
	cfg := config.Load()

	// Console output stays on stdout, logs go to stderr unless overridden.
	logCfg := logger.DefaultConfig()
	if os.Getenv("LOG_OUTPUT") == "" {
		logCfg.Output = "stderr"
	}
	log := logger.New(logCfg)

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

	userRepo := repository.NewUserRepository(db)
	loginHistRepo := repository.NewLoginHistoryRepository(db)
	logoutHistRepo := repository.NewLogoutHistoryRepository(db)

	hasher := auth.NewPasswordHasher()
	service := auth.NewAuthService(userRepo, loginHistRepo, logoutHistRepo, hasher, log)

	app := console.New(service, log, os.Stdin, os.Stdout)
	if err := app.Run(context.Background()); err != nil {
		log.Error("console session failed", "error", err)
		os.Exit(1)
	}
}

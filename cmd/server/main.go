package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/diewo77/facturo/auth"
	"github.com/diewo77/facturo/internal/config"
	"github.com/diewo77/facturo/internal/db"
	"github.com/diewo77/facturo/internal/logging"
	"github.com/diewo77/facturo/internal/plan"
	"github.com/diewo77/facturo/internal/store"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	issueTokenFlag  = flag.String("issue-token", "", "Print a signed token for tenant[:plan] and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()
	cfg := config.Load()

	if *issueTokenFlag != "" {
		tenant, planID, _ := strings.Cut(*issueTokenFlag, ":")
		fmt.Println(auth.New(cfg.App.SessionSecret).IssueToken(auth.Identity{TenantID: tenant, Plan: planID}))
		return
	}

	logger, err := logging.New(cfg.App.LogLevel, cfg.App.Dev)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.App.SessionSecret == "" {
		logger.Warn("SESSION_SECRET not set, using the development secret")
	}

	conn, err := db.Open(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(conn); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations completed")
		return nil
	}
	if cfg.App.Migrations {
		if err := db.Migrate(conn); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations completed")
	}

	catalog := plan.Default()
	if cfg.App.PlansFile != "" {
		catalog, err = plan.Load(cfg.App.PlansFile)
		if err != nil {
			return err
		}
		logger.Info("plan catalog loaded", zap.String("path", cfg.App.PlansFile))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      NewApp(cfg, store.New(conn), catalog, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port), zap.Bool("dev", cfg.App.Dev))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
		logger.Info("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("server stopped gracefully")
	return nil
}

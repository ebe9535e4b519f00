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
	"syscall"

	"github.com/mcclellann/loanschedule/pkg/amortization"
	"github.com/mcclellann/loanschedule/pkg/config"
	"github.com/mcclellann/loanschedule/pkg/ledger"
	"github.com/mcclellann/loanschedule/pkg/logger"
	"github.com/mcclellann/loanschedule/pkg/store"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "TOML config file (default: $"+config.EnvConfigPath+")")
	port := flag.Int("port", 0, "HTTP server port, overrides [server] port")
	dsn := flag.String("db", "", "SQLite data source, overrides [store] dsn")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dsn != "" {
		cfg.Store.DSN = *dsn
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	sqliteStore, err := store.NewSQLiteStore(cfg.Store.DSN, zl)
	if err != nil {
		return fmt.Errorf("initialize SQLite store: %w", err)
	}

	l := ledger.NewLedger(sqliteStore, amortization.NewEngine(policy), zl)
	server := NewServer(sqliteStore, l, zl)
	defer func() {
		if err := server.Close(); err != nil {
			zl.Warn("failed to close store", zap.Error(err))
		}
	}()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  cfg.Server.IdleTimeout.Duration,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server starting", zap.Int("port", cfg.Server.Port), zap.String("dsn", cfg.Store.DSN))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		zl.Info("shutting down server", zap.Stringer("signal", sig))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	zl.Info("server stopped")
	return nil
}

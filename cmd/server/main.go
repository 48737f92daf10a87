package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/diewo77/go-deliberations/internal/config"
	"github.com/diewo77/go-deliberations/internal/logging"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Seed the bootstrap admin and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	dbConn, err := openDatabase(cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if *migrateOnlyFlag {
		if err := migrate(dbConn, cfg, log); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations completed successfully")
		return
	}

	if *seedOnlyFlag {
		if err := seed(dbConn, cfg, log); err != nil {
			log.Error("seeding failed", "error", err)
			os.Exit(1)
		}
		log.Info("seeding completed successfully")
		return
	}

	if cfg.App.Migrations || cfg.App.AutoMigrate {
		if err := migrate(dbConn, cfg, log); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
	}
	if err := seed(dbConn, cfg, log); err != nil {
		log.Error("seeding failed", "error", err)
		os.Exit(1)
	}

	app, err := newApp(dbConn, cfg, log)
	if err != nil {
		log.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Server.Port, "driver", cfg.Database.Driver, "dev", cfg.App.Dev)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	if sqlDB, err := dbConn.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server stopped gracefully")
}

package main

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/diewo77/go-deliberations/auth"
	"github.com/diewo77/go-deliberations/internal/config"
	"github.com/diewo77/go-deliberations/internal/db"
	"github.com/diewo77/go-deliberations/internal/render"
	"github.com/diewo77/go-deliberations/internal/server"
)

func openDatabase(cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	return db.Open(cfg.Database, cfg.App.Dev, log)
}

// migrate applies the embedded SQL migrations when MIGRATIONS is set and
// falls back to AutoMigrate otherwise.
func migrate(d *gorm.DB, cfg *config.Config, log *slog.Logger) error {
	if cfg.App.Migrations {
		return db.RunSQLMigrations(d, cfg.Database.Driver, log)
	}
	if err := db.Migrate(d); err != nil {
		return err
	}
	log.Info("auto-migration completed")
	return nil
}

func seed(d *gorm.DB, cfg *config.Config, log *slog.Logger) error {
	return db.SeedAdmin(d, cfg.App.AdminUsername, cfg.App.AdminPassword, cfg.Auth.BcryptCost, log)
}

// newApp loads the seals and builds the HTTP handler. A missing signing
// secret or seal image stops startup.
func newApp(d *gorm.DB, cfg *config.Config, log *slog.Logger) (*server.App, error) {
	iss, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("JWT_SECRET: %w", err)
	}
	assets, err := render.LoadAssets(cfg.Assets.SealImage, cfg.Assets.CommuneImage)
	if err != nil {
		return nil, fmt.Errorf("seal images: %w", err)
	}
	return server.NewApp(server.Deps{
		DB:         d,
		Log:        log,
		Issuer:     iss,
		Assets:     assets,
		BcryptCost: cfg.Auth.BcryptCost,
		CORSOrigin: cfg.Server.CORSOrigin,
	}), nil
}

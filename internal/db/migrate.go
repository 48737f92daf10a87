package db

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/diewo77/go-deliberations/internal/config"
	"github.com/diewo77/go-deliberations/internal/models"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate runs AutoMigrate for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Letter{},
	)
}

// RunSQLMigrations applies the embedded SQL migrations for driver.
func RunSQLMigrations(db *gorm.DB, driver string, log *slog.Logger) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	var (
		dir      string
		dbDriver database.Driver
	)
	switch driver {
	case config.DriverPostgres, "":
		dir = "postgres"
		dbDriver, err = postgres.WithInstance(sqlDB, &postgres.Config{})
	case config.DriverMySQL:
		dir = "mysql"
		dbDriver, err = migratemysql.WithInstance(sqlDB, &migratemysql.Config{MultiStatementEnabled: true})
	case config.DriverSQLite:
		dir = "sqlite3"
		dbDriver, err = sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	default:
		return fmt.Errorf("db: unsupported driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations/"+dir)
	if err != nil {
		return fmt.Errorf("failed to create migration source driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, dir, dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("database migrations: already up to date", "driver", dir)
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database migrations: applied", "driver", dir)
	return nil
}

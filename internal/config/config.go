// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Assets   AssetsConfig
	Log      LogConfig
	App      AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
	CORSOrigin   string
}

// DatabaseConfig holds relational store connection settings.
type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	Path         string // sqlite file, ":memory:" allowed
	MaxOpenConns int
	MaxIdleConns int
}

// AuthConfig holds credential settings.
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// AssetsConfig points at the two seal images used by the PDF renderer.
type AssetsConfig struct {
	SealImage    string
	CommuneImage string
}

type LogConfig struct {
	Level  string
	Format string
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev           bool
	Migrations    bool
	AutoMigrate   bool
	AdminUsername string
	AdminPassword string
}

// DSN returns the gorm connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	switch d.Driver {
	case DriverMySQL:
		// clientFoundRows makes UPDATE report matched rows, so an unchanged
		// full replace is not mistaken for a missing letter.
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
			d.User, d.Password, d.Host, d.Port, d.DBName,
		)
	case DriverSQLite:
		if d.Path == "" {
			return "file::memory:?cache=shared&_foreign_keys=on"
		}
		return "file:" + d.Path + "?_foreign_keys=on"
	default:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
		)
	}
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	driver := getEnv("DB_DRIVER", DriverPostgres)
	defaultPort := 5432
	if driver == DriverMySQL {
		defaultPort = 3306
	}
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "3001"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
			CORSOrigin:   getEnv("CORS_ORIGIN", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Driver:       driver,
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", defaultPort),
			User:         getEnv("DB_USER", "deliberations"),
			Password:     getEnv("DB_PASSWORD", "deliberations"),
			DBName:       getEnv("DB_NAME", "deliberations"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			Path:         getEnv("DB_PATH", "deliberations.db"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 10),
		},
		Auth: AuthConfig{
			JWTSecret:  os.Getenv("JWT_SECRET"),
			TokenTTL:   time.Duration(getEnvInt("TOKEN_TTL_MINUTES", 60)) * time.Minute,
			BcryptCost: getEnvInt("BCRYPT_COST", 12),
		},
		Assets: AssetsConfig{
			SealImage:    getEnv("SEAL_IMAGE", "assets/logo.png"),
			CommuneImage: getEnv("COMMUNE_IMAGE", "assets/commune.png"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		App: AppConfig{
			Dev:           getEnvBool("DEV", false),
			Migrations:    getEnvBool("MIGRATIONS", false),
			AutoMigrate:   getEnvBool("AUTO_MIGRATE", true),
			AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		},
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}

package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("PORT", "")
	t.Setenv("BCRYPT_COST", "")
	cfg := Load()
	if cfg.Server.Port != "3001" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Database.Driver != DriverPostgres || cfg.Database.Port != 5432 {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Auth.BcryptCost != 12 || cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("auth = %+v", cfg.Auth)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("TOKEN_TTL_MINUTES", "15")
	t.Setenv("MIGRATIONS", "yes")
	t.Setenv("AUTO_MIGRATE", "0")
	t.Setenv("SERVER_READ_TIMEOUT", "not-a-number")
	cfg := Load()
	if cfg.Database.Port != 3306 {
		t.Errorf("mysql default port = %d", cfg.Database.Port)
	}
	if cfg.Auth.TokenTTL != 15*time.Minute {
		t.Errorf("ttl = %v", cfg.Auth.TokenTTL)
	}
	if !cfg.App.Migrations || cfg.App.AutoMigrate {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Server.ReadTimeout != 15 {
		t.Errorf("invalid int should fall back, got %d", cfg.Server.ReadTimeout)
	}
}

func TestDSNPerDriver(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 3306, User: "u", Password: "p", DBName: "mga", SSLMode: "disable"}

	d.Driver = DriverMySQL
	if got := d.DSN(); !strings.HasPrefix(got, "u:p@tcp(db:3306)/mga?") || !strings.Contains(got, "clientFoundRows=true") {
		t.Errorf("mysql dsn = %q", got)
	}

	d.Driver = DriverPostgres
	d.Port = 5432
	if got := d.DSN(); got != "host=db port=5432 user=u password=p dbname=mga sslmode=disable" {
		t.Errorf("postgres dsn = %q", got)
	}
	if got := d.URL(); got != "postgres://u:p@db:5432/mga?sslmode=disable" {
		t.Errorf("postgres url = %q", got)
	}

	d.Driver = DriverSQLite
	d.Path = "/tmp/x.db"
	if got := d.DSN(); got != "file:/tmp/x.db?_foreign_keys=on" {
		t.Errorf("sqlite dsn = %q", got)
	}
}

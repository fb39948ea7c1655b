// Package config reads the server settings from the environment. A .env file,
// when present, is loaded by cmd/server before Load runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig selects PostgreSQL, or an embedded SQLite file at
// SQLitePath.
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

type AppConfig struct {
	Dev        bool
	Migrations bool
	LogLevel   string

	// SessionSecret signs identity tokens. Required unless Dev.
	SessionSecret string

	// PlansFile optionally replaces the built-in plan table.
	PlansFile string

	// NumberingMaxAttempts bounds retries when two invoices race for
	// the same number.
	NumberingMaxAttempts int

	DefaultLang string
}

// DSN is the key=value PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// Load reads the configuration. Unset or unparsable variables fall back to
// local development defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         str("PORT", "8080"),
			ReadTimeout:  seconds("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: seconds("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  seconds("SERVER_IDLE_TIMEOUT", time.Minute),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(str("DB_DRIVER", DriverPostgres)),
			Host:       str("DB_HOST", "localhost"),
			Port:       integer("DB_PORT", 5432),
			User:       str("DB_USER", "facturo"),
			Password:   str("DB_PASSWORD", "facturo123"),
			DBName:     str("DB_NAME", "facturo"),
			SSLMode:    str("DB_SSLMODE", "disable"),
			SQLitePath: str("SQLITE_PATH", "facturo.db"),
		},
		App: AppConfig{
			Dev:                  boolean("DEV", true),
			Migrations:           boolean("MIGRATIONS", false),
			LogLevel:             str("LOG_LEVEL", "info"),
			SessionSecret:        os.Getenv("SESSION_SECRET"),
			PlansFile:            os.Getenv("PLANS_FILE"),
			NumberingMaxAttempts: integer("NUMBERING_MAX_ATTEMPTS", 3),
			DefaultLang:          str("DEFAULT_LANG", "en"),
		},
	}
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER: unsupported driver %q", c.Database.Driver))
	}
	if c.App.NumberingMaxAttempts < 1 {
		errs = append(errs, errors.New("NUMBERING_MAX_ATTEMPTS: must be at least 1"))
	}
	if c.App.SessionSecret == "" && !c.App.Dev {
		errs = append(errs, errors.New("SESSION_SECRET: required outside development"))
	}
	return errors.Join(errs...)
}

func str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func integer(key string, def int) int {
	n, err := strconv.Atoi(str(key, ""))
	if err != nil {
		return def
	}
	return n
}

// boolean accepts 1, true and yes.
func boolean(key string, def bool) bool {
	switch strings.ToLower(str(key, "")) {
	case "":
		return def
	case "1", "true", "yes":
		return true
	}
	return false
}

// seconds accepts a Go duration ("90s") or a bare number of seconds.
func seconds(key string, def time.Duration) time.Duration {
	v := str(key, "")
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d
	}
	return def
}

// Package config handles loading and parsing application configuration.
//
// Values come from the process environment. Two optional sources are
// layered underneath it:
//  1. A .env file in the working directory (loaded with godotenv; variables
//     already set in the environment always win).
//  2. A YAML file named by CONFIG_PATH or --config. cleanenv reads the file
//     first and then applies env:"..." overrides on top.
//
// The parsed values are returned as a *Config that main builds once and hands
// to the components that need it. Nothing below main reads os.Getenv.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Supported values for Database.Driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the root configuration structure.
// Every field maps to a key in the optional YAML file AND to an environment
// variable (env:"..."). Defaults live in env-default tags.
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "local", "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"prod"`

	HTTPServer `yaml:"http_server"`
	Database   `yaml:"database"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	Host            string        `yaml:"host" env:"HOST" env-default:"0.0.0.0"`
	Port            int           `yaml:"port" env:"PORT" env-default:"8000"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// Addr is the TCP address the server listens on, e.g. "0.0.0.0:8000".
func (h HTTPServer) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

// Database describes how to reach the student store.
type Database struct {
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`

	Name     string `yaml:"name" env:"POSTGRES_DB"`
	User     string `yaml:"user" env:"POSTGRES_USER"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD"`
	Host     string `yaml:"host" env:"POSTGRES_HOST"`
	Port     string `yaml:"port" env:"POSTGRES_PORT"`
	SSLMode  string `yaml:"sslmode" env:"POSTGRES_SSLMODE" env-default:"disable"`

	// StoragePath is the filesystem path to the SQLite .db file.
	// Only used when Driver is "sqlite".
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH"`

	// QueryTimeout bounds every gateway call, including health pings.
	QueryTimeout    time.Duration `yaml:"query_timeout" env:"DB_QUERY_TIMEOUT" env-default:"5s"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`
}

// DSN returns the lib/pq connection URL for the Postgres settings.
func (d Database) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Validate reports every required setting that is missing for the selected
// driver in a single error.
func (c *Config) Validate() error {
	if c.HTTPServer.Port <= 0 || c.HTTPServer.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.HTTPServer.Port)
	}

	var missing []string
	switch c.Database.Driver {
	case DriverPostgres:
		required := []struct{ name, value string }{
			{"POSTGRES_DB", c.Database.Name},
			{"POSTGRES_USER", c.Database.User},
			{"POSTGRES_PASSWORD", c.Database.Password},
			{"POSTGRES_HOST", c.Database.Host},
			{"POSTGRES_PORT", c.Database.Port},
		}
		for _, r := range required {
			if strings.TrimSpace(r.value) == "" {
				missing = append(missing, r.name)
			}
		}
	case DriverSQLite:
		if c.Database.StoragePath == "" {
			missing = append(missing, "STORAGE_PATH")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q: use %q or %q",
			c.Database.Driver, DriverPostgres, DriverSQLite)
	}

	if len(missing) > 0 {
		return fmt.Errorf("required environment variables are not set: %s",
			strings.Join(missing, ", "))
	}
	return nil
}

// Load builds a Config from the environment, optionally layered over the
// YAML file at path. An empty path means environment only.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad reads, validates, and returns the application config.
//
// Functions prefixed with "Must" are allowed to exit on failure: a missing
// data-store variable is a fatal startup condition.
func MustLoad() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("cannot load .env file: %s", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		flags := flag.String("config", "", "Path to an optional configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("invalid configuration: %s", err)
	}
	return cfg
}

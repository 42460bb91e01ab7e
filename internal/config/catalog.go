package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	defaultHTTPAddr        = ":8080"
	defaultMigrationsPath  = "migrations/catalog"
	defaultShutdownTimeout = 10 * time.Second

	defaultDBMaxOpenConns    = 20
	defaultDBMaxIdleConns    = 5
	defaultDBConnMaxLifetime = 30 * time.Minute
	defaultDBConnMaxIdleTime = 10 * time.Minute
	defaultDBPingTimeout     = 5 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
)

// Catalog holds the catalog service configuration. DatabaseURL is a
// postgres:// URI, credentials included, passed to the driver as-is.
type Catalog struct {
	DatabaseURL       string
	RabbitMQURL       string
	HTTPAddr          string
	MigrationsPath    string
	ShutdownTimeout   time.Duration
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
	DBPingTimeout     time.Duration
	ReadHeaderTimeout time.Duration
}

func LoadCatalog() (Catalog, error) {
	cfg := Catalog{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RabbitMQURL:       getEnv("RABBITMQ_URL", ""),
		HTTPAddr:          getEnv("HTTP_ADDR", defaultHTTPAddr),
		MigrationsPath:    getEnv("MIGRATIONS_PATH", defaultMigrationsPath),
		ShutdownTimeout:   defaultShutdownTimeout,
		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", defaultDBMaxOpenConns),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", defaultDBMaxIdleConns),
		DBConnMaxLifetime: defaultDBConnMaxLifetime,
		DBConnMaxIdleTime: defaultDBConnMaxIdleTime,
		DBPingTimeout:     defaultDBPingTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
	}

	if cfg.DatabaseURL == "" {
		return Catalog{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RabbitMQURL == "" {
		return Catalog{}, fmt.Errorf("RABBITMQ_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

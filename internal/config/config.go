package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds every setting read from the environment at startup
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	LogFormat   string
	ServiceName string
	Version     string
	Store       string

	Database Database
	Auth     Auth
	Redis    Redis
	Kafka    Kafka

	// OTLPEndpoint disables telemetry export when empty.
	OTLPEndpoint string
}

// Database holds the PostgreSQL connection settings
type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	MaxConns int32
}

// DSN returns the connection URL understood by both pgx and lib/pq.
func (d Database) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

type Auth struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// Redis is optional; an empty Addr keeps sessions disabled.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Kafka is optional; no brokers means events are dropped.
type Kafka struct {
	Brokers []string
	Topic   string
}

// IsDevelopment is true only when APP_ENV is explicitly development.
func (c Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		Env:          getEnv("APP_ENV", EnvProduction),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
		ServiceName:  getEnv("SERVICE_NAME", "bookstore-backoffice"),
		Version:      getEnv("SERVICE_VERSION", "1.0.0"),
		Store:        getEnv("STORE", StorePostgres),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Database: Database{
			Host:     getEnv("DATABASE_HOST", "localhost"),
			Port:     getEnv("DATABASE_PORT", "5432"),
			User:     getEnv("DATABASE_USER", "root"),
			Password: getEnv("DATABASE_PASSWORD", "bookstore_pass"),
			Name:     getEnv("DATABASE_NAME", "bookstore_db"),
		},
		Auth: Auth{
			JWTSecret: getEnv("JWT_SECRET", "change-me"),
		},
		Redis: Redis{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Kafka: Kafka{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "bookstore.transactions"),
		},
	}

	maxConns, err := strconv.ParseInt(getEnv("DATABASE_MAX_CONNS", "10"), 10, 32)
	if err != nil || maxConns < 1 {
		return Config{}, fmt.Errorf("invalid DATABASE_MAX_CONNS: %q", os.Getenv("DATABASE_MAX_CONNS"))
	}
	cfg.Database.MaxConns = int32(maxConns)

	cfg.Auth.TokenTTL, err = time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil || cfg.Auth.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("invalid JWT_TTL: %q", os.Getenv("JWT_TTL"))
	}

	cfg.Redis.DB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	switch cfg.Store {
	case StorePostgres, StoreMemory:
	default:
		return Config{}, fmt.Errorf("invalid STORE %q: expected %s or %s", cfg.Store, StorePostgres, StoreMemory)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

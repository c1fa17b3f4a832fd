package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "APP_ENV", "STORE", "JWT_TTL", "DATABASE_MAX_CONNS", "KAFKA_TOPIC"} {
		t.Setenv(key, "")
	}
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.Equal(t, "bookstore.transactions", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, EnvProduction, cfg.Env)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE", "memory")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"JWT_TTL":            "tomorrow",
		"DATABASE_MAX_CONNS": "0",
		"REDIS_DB":           "x",
		"STORE":              "mongo",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)

			_, err := Load()

			assert.Error(t, err)
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	db := Database{Host: "db", Port: "5432", User: "root", Password: "p@ss", Name: "bookstore_db"}

	assert.Equal(t, "postgres://root:p%40ss@db:5432/bookstore_db?sslmode=disable", db.DSN())
}

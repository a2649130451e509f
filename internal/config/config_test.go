package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASS", "DB_NAME", "DB_CONNECT_RETRIES",
		"REDIS_ADDR", "KAFKA_BROKERS", "ORDER_TOPIC", "ORDER_TOTAL_POLICY", "STATUS_TRANSITIONS", "CATALOG_CACHE_TTL",
		"REQUEST_TIMEOUT", "ADMIN_USERNAME", "ADMIN_PASSWORD", "JWT_SECRET", "LOG_LEVEL", "RATE_LIMIT_PER_SECOND", "RATE_LIMIT_BURST"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "item_sum", cfg.Orders.TotalPolicy)
	assert.Equal(t, "lenient", cfg.Orders.StatusTransitions)
	assert.Equal(t, 60*time.Second, cfg.Catalog.CacheTTL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Nil(t, NewKafkaWriter(cfg.Kafka))
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("STATUS_TRANSITIONS", "STRICT")
	t.Setenv("CATALOG_CACHE_TTL", "30")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "strict", cfg.Orders.StatusTransitions)
	assert.Equal(t, 30*time.Second, cfg.Catalog.CacheTTL)
	assert.Equal(t, 2.5, cfg.RateLimit.PerSecond)

	writer := NewKafkaWriter(cfg.Kafka)
	require.NotNil(t, writer)
	assert.Equal(t, "order-topic", writer.Topic)
}

func TestLoadRejectsUnknownPolicy(t *testing.T) {
	clearEnv(t)
	t.Setenv("ORDER_TOTAL_POLICY", "whatever")
	t.Setenv("DB_CONNECT_RETRIES", "x")

	_, err := Load("")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "ORDER_TOTAL_POLICY"))
	assert.True(t, strings.Contains(err.Error(), "DB_CONNECT_RETRIES"))
}

func TestLoadReadsEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("DB_NAME")
	t.Cleanup(func() { os.Unsetenv("DB_NAME") })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_NAME=bakery\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bakery", cfg.DB.Name)
}

func TestLoadMissingEnvFileIsFine(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestDSN(t *testing.T) {
	dsn := DBConfig{Host: "db", Port: "3306", User: "shop", Pass: "pw", Name: "storefront"}.DSN()
	assert.True(t, strings.HasPrefix(dsn, "shop:pw@tcp(db:3306)/storefront?"))
	assert.Contains(t, dsn, "clientFoundRows=true")
	assert.Contains(t, dsn, "parseTime=true")
}

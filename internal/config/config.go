package config

import (
	"errors"
	"fmt"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort              = "8080"
	defaultDBHost            = "127.0.0.1"
	defaultDBPort            = "3306"
	defaultDBUser            = "root"
	defaultDBName            = "storefront"
	defaultDBConnectRetries  = 10
	defaultRedisAddr         = "localhost:6379"
	defaultOrderTopic        = "order-topic"
	defaultTotalPolicy       = "item_sum"
	defaultStatusTransitions = "lenient"
	defaultCatalogCacheTTL   = 60 * time.Second
	defaultRequestTimeout    = 15 * time.Second
	defaultAdminUsername     = "admin"
	defaultAdminPassword     = "admin123"
	defaultJWTSecret         = "secret"
	defaultLogLevel          = "info"
	defaultRatePerSecond     = 1.0
	defaultRateBurst         = 3
)

type Config struct {
	Port           string
	RequestTimeout time.Duration
	LogLevel       string
	DB             DBConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	Orders         OrderConfig
	Catalog        CatalogConfig
	Admin          AdminConfig
	RateLimit      RateLimitConfig
}

type DBConfig struct {
	Host           string
	Port           string
	User           string
	Pass           string
	Name           string
	ConnectRetries int
}

type RedisConfig struct {
	Addr string
}

// KafkaConfig is optional; with no brokers order events are dropped.
type KafkaConfig struct {
	Brokers    []string
	OrderTopic string
}

type OrderConfig struct {
	TotalPolicy       string
	StatusTransitions string
}

type CatalogConfig struct {
	CacheTTL time.Duration
}

type AdminConfig struct {
	Username  string
	Password  string
	JWTSecret string
}

type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

// Load reads the environment, after merging an optional .env file from the working directory.
// Variables already set in the process environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if file == "" {
			continue
		}
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", file, err)
		}
	}

	var problems []string
	cfg := Config{
		Port:           stringWithDefault("PORT", defaultPort),
		RequestTimeout: durationWithDefault("REQUEST_TIMEOUT", defaultRequestTimeout, &problems),
		LogLevel:       strings.ToLower(stringWithDefault("LOG_LEVEL", defaultLogLevel)),
		DB: DBConfig{
			Host:           stringWithDefault("DB_HOST", defaultDBHost),
			Port:           stringWithDefault("DB_PORT", defaultDBPort),
			User:           stringWithDefault("DB_USER", defaultDBUser),
			Pass:           os.Getenv("DB_PASS"),
			Name:           stringWithDefault("DB_NAME", defaultDBName),
			ConnectRetries: intWithDefault("DB_CONNECT_RETRIES", defaultDBConnectRetries, &problems),
		},
		Redis: RedisConfig{
			Addr: stringWithDefault("REDIS_ADDR", defaultRedisAddr),
		},
		Kafka: KafkaConfig{
			Brokers:    csv("KAFKA_BROKERS"),
			OrderTopic: stringWithDefault("ORDER_TOPIC", defaultOrderTopic),
		},
		Orders: OrderConfig{
			TotalPolicy:       strings.ToLower(stringWithDefault("ORDER_TOTAL_POLICY", defaultTotalPolicy)),
			StatusTransitions: strings.ToLower(stringWithDefault("STATUS_TRANSITIONS", defaultStatusTransitions)),
		},
		Catalog: CatalogConfig{
			CacheTTL: durationWithDefault("CATALOG_CACHE_TTL", defaultCatalogCacheTTL, &problems),
		},
		Admin: AdminConfig{
			Username:  stringWithDefault("ADMIN_USERNAME", defaultAdminUsername),
			Password:  stringWithDefault("ADMIN_PASSWORD", defaultAdminPassword),
			JWTSecret: stringWithDefault("JWT_SECRET", defaultJWTSecret),
		},
		RateLimit: RateLimitConfig{
			PerSecond: floatWithDefault("RATE_LIMIT_PER_SECOND", defaultRatePerSecond, &problems),
			Burst:     intWithDefault("RATE_LIMIT_BURST", defaultRateBurst, &problems),
		},
	}

	switch cfg.Orders.TotalPolicy {
	case "item_sum", "client_total":
	default:
		problems = append(problems, fmt.Sprintf("ORDER_TOTAL_POLICY must be item_sum or client_total, got %q", cfg.Orders.TotalPolicy))
	}
	switch cfg.Orders.StatusTransitions {
	case "lenient", "strict":
	default:
		problems = append(problems, fmt.Sprintf("STATUS_TRANSITIONS must be lenient or strict, got %q", cfg.Orders.StatusTransitions))
	}
	if cfg.DB.ConnectRetries < 1 {
		problems = append(problems, "DB_CONNECT_RETRIES must be at least 1")
	}

	if len(problems) > 0 {
		return Config{}, fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}

	return cfg, nil
}

// DSN renders the MySQL data source name. Timestamps are parsed into time.Time and UPDATE
// reports matched rather than changed rows, so a same-value status update still counts.
func (c DBConfig) DSN() string {
	dsn := mysql.NewConfig()
	dsn.User = c.User
	dsn.Passwd = c.Pass
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(c.Host, c.Port)
	dsn.DBName = c.Name
	dsn.ParseTime = true
	dsn.ClientFoundRows = true
	return dsn.FormatDSN()
}

func stringWithDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationWithDefault(key string, fallback time.Duration, problems *[]string) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		// bare numbers are seconds
		secs, convErr := strconv.Atoi(raw)
		if convErr != nil {
			*problems = append(*problems, fmt.Sprintf("%s: invalid duration %q", key, raw))
			return fallback
		}
		d = time.Duration(secs) * time.Second
	}
	return d
}

func intWithDefault(key string, fallback int, problems *[]string) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s: invalid integer %q", key, raw))
		return fallback
	}
	return v
}

func floatWithDefault(key string, fallback float64, problems *[]string) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s: invalid number %q", key, raw))
		return fallback
	}
	return v
}

func csv(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

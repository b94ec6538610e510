package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Polygon  PolygonConfig
	Backfill BackfillConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
}

// ServerConfig holds HTTP server configuration for the ops API
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host             string
	Port             string
	User             string
	Password         string
	DBName           string
	SSLMode          string
	StatementTimeout time.Duration
}

// PolygonConfig holds upstream market data API configuration. BaseURL is
// the grouped-daily endpoint prefix; the request date is appended to it.
type PolygonConfig struct {
	BaseURL string
	APIKey  string
}

// BackfillConfig holds the backfill window and pacing settings
type BackfillConfig struct {
	CalendarID       string
	YearsBack        int
	DaysBackOverride int
	PacingInterval   time.Duration
}

// KafkaConfig holds ingestion event publishing configuration. Publishing
// is disabled when no brokers are configured.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// RedisConfig holds run-progress tracker configuration. Tracking is
// disabled when Addr is empty.
type RedisConfig struct {
	Addr string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:             getEnv("DB_HOST", "localhost"),
			Port:             getEnv("DB_PORT", "5432"),
			User:             getEnv("DB_USER", "postgres"),
			Password:         getEnv("DB_PASSWORD", "postgres"),
			DBName:           getEnv("DB_NAME", "marketdata"),
			SSLMode:          getEnv("DB_SSLMODE", "disable"),
			StatementTimeout: getEnvDuration("DB_STATEMENT_TIMEOUT", 30*time.Second),
		},
		Polygon: PolygonConfig{
			BaseURL: getEnv("API_BASE_URL", "https://api.polygon.io/v2/aggs/grouped/locale/us/market/stocks/"),
			APIKey:  os.Getenv("POLYGON_API_KEY"),
		},
		Backfill: BackfillConfig{
			CalendarID:       getEnv("MARKET_CALENDAR", "NYSE"),
			YearsBack:        getEnvInt("BACKFILL_YEARS_BACK", 2),
			DaysBackOverride: getEnvInt("BACKFILL_DAYS_OVERRIDE", 0),
			PacingInterval:   getEnvDuration("BACKFILL_PACING_INTERVAL", 20*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: parseBrokers(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "ingestion-events"),
		},
		Redis: RedisConfig{
			Addr: os.Getenv("REDIS_ADDR"),
		},
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

// Enabled reports whether ingestion events should be published
func (k *KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Enabled reports whether run progress should be tracked
func (r *RedisConfig) Enabled() bool {
	return r.Addr != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	brokers := strings.Split(s, ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}
	return brokers
}

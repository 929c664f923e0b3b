package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	MarketData MarketDataConfig
	Cache      CacheConfig
	Alerts     AlertsConfig
	Kafka      KafkaConfig
	Logging    LoggingConfig
	ServiceKey string
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database specific configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MarketDataConfig holds configuration for the upstream price provider and
// the symbol directory.
type MarketDataConfig struct {
	BaseURL            string
	SymbolDirectoryURL string
	RequestTimeout     time.Duration
	MaxRetries         int
}

// CacheConfig holds the fetch-cache tuning knobs.
type CacheConfig struct {
	HistoryTTL      time.Duration
	QuoteTTL        time.Duration
	SymbolsTTL      time.Duration
	FailureCooldown time.Duration
	MinSeriesRows   int
	BulkWorkers     int
}

// AlertsConfig holds the alert sweep schedule.
type AlertsConfig struct {
	Enabled  bool
	Schedule string
}

// KafkaConfig holds Kafka specific configuration
type KafkaConfig struct {
	Brokers  string
	ClientID string
	Topics   map[string]string
}

// LoggingConfig holds logging specific configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads the configuration from file and environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Environment variables override
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "10s")
	v.SetDefault("server.idleTimeout", "120s")

	// Database defaults
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", "30m")

	// Market data provider defaults
	v.SetDefault("marketData.baseURL", "https://query1.finance.yahoo.com")
	v.SetDefault("marketData.symbolDirectoryURL", "https://www1.nseindia.com/content/equities/EQUITY_L.csv")
	v.SetDefault("marketData.requestTimeout", "15s")
	v.SetDefault("marketData.maxRetries", 3)

	// Fetch cache defaults
	v.SetDefault("cache.historyTTL", "300s")
	v.SetDefault("cache.quoteTTL", "60s")
	v.SetDefault("cache.symbolsTTL", "24h")
	v.SetDefault("cache.failureCooldown", "1h")
	v.SetDefault("cache.minSeriesRows", 50)
	v.SetDefault("cache.bulkWorkers", 8)

	// Alert sweep defaults
	v.SetDefault("alerts.enabled", true)
	v.SetDefault("alerts.schedule", "*/5 * * * *")

	// Kafka defaults
	v.SetDefault("kafka.clientID", "portfolio-insights")
	v.SetDefault("kafka.topics.alertEvents", "alert-events")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("serviceKey", "portfolio-insights-key")
}

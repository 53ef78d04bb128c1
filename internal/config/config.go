/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the ledger-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort               string `mapstructure:"SERVER_PORT"`
	DatabaseURL              string `mapstructure:"DATABASE_URL"`
	JWTSecret                string `mapstructure:"JWT_SECRET"`
	FieldEncryptionKey       string `mapstructure:"FIELD_ENCRYPTION_KEY"`
	QuoteAPIBaseURL          string `mapstructure:"QUOTE_API_BASE_URL"`
	QuoteAPIKey              string `mapstructure:"QUOTE_API_KEY"`
	QuoteCacheTTLSeconds     int    `mapstructure:"QUOTE_CACHE_TTL_SECONDS"`
	QuoteFetchTimeoutSeconds int    `mapstructure:"QUOTE_FETCH_TIMEOUT_SECONDS"`
	QuoteRateLimitPerMinute  int    `mapstructure:"QUOTE_RATE_LIMIT_PER_MINUTE"`
	RedisURL                 string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix     string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL              string `mapstructure:"RABBITMQ_URL"`
	AuditEventExchange       string `mapstructure:"AUDIT_EVENT_EXCHANGE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("QUOTE_CACHE_TTL_SECONDS", 60)
	viper.SetDefault("QUOTE_FETCH_TIMEOUT_SECONDS", 10)
	viper.SetDefault("QUOTE_RATE_LIMIT_PER_MINUTE", 60)
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "finbook:rate_limit")
	viper.SetDefault("AUDIT_EVENT_EXCHANGE", "finbook.events")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("FIELD_ENCRYPTION_KEY", "FIELD_ENCRYPTION_KEY", "LEDGER_FIELD_ENCRYPTION_KEY")
	_ = viper.BindEnv("QUOTE_API_BASE_URL")
	_ = viper.BindEnv("QUOTE_API_KEY")
	_ = viper.BindEnv("QUOTE_CACHE_TTL_SECONDS")
	_ = viper.BindEnv("QUOTE_FETCH_TIMEOUT_SECONDS")
	_ = viper.BindEnv("QUOTE_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("AUDIT_EVENT_EXCHANGE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "finbook:rate_limit"
	}

	if config.QuoteCacheTTLSeconds <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive quote cache ttl configured; using default\" ttl_seconds=%d", config.QuoteCacheTTLSeconds)
		config.QuoteCacheTTLSeconds = 60
	}
	if config.QuoteFetchTimeoutSeconds <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive quote fetch timeout configured; using default\" timeout_seconds=%d", config.QuoteFetchTimeoutSeconds)
		config.QuoteFetchTimeoutSeconds = 10
	}
	if config.QuoteRateLimitPerMinute < 0 {
		log.Printf("level=warn component=config msg=\"negative quote rate limit configured; disabling\" limit_per_minute=%d", config.QuoteRateLimitPerMinute)
		config.QuoteRateLimitPerMinute = 0
	}

	return
}

package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL        string
	RedisAddr          string
	Port               string
	IsProduction       bool
	CacheTTL           time.Duration
	EventChannelPrefix string
	RateLimit          string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("CACHE_TTL", "5m")
	viper.SetDefault("EVENT_CHANNEL_PREFIX", "bankaccounts")
	viper.SetDefault("RATE_LIMIT", "100-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.RedisAddr = viper.GetString("REDIS_ADDR")
	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EventChannelPrefix = viper.GetString("EVENT_CHANNEL_PREFIX")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	cacheTTLStr := viper.GetString("CACHE_TTL")
	cacheTTL, err := time.ParseDuration(cacheTTLStr)
	if err != nil {
		cacheTTL = 5 * time.Minute
		log.Printf("Warning: Invalid value for CACHE_TTL (%q). Defaulting to %s.\n", cacheTTLStr, cacheTTL)
	}
	cfg.CacheTTL = cacheTTL

	return cfg, nil
}

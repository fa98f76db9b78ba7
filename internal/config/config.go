package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName       string
	AppEnv        string
	AppPort       string
	DatabaseURL   string
	RedisURL      string
	NatsURL       string
	NatsSubject   string
	JWTSecret     string
	MarksCacheTTL time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and an optional
// .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SKOR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "SKOR API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.subject", "skor.topicmarks.recomputed")
	v.SetDefault("marks.cache_ttl", "5m")

	ttlString := v.GetString("marks.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid marks cache ttl: %w", err)
	}

	cfg := Config{
		AppName:       v.GetString("app.name"),
		AppEnv:        v.GetString("app.env"),
		AppPort:       v.GetString("app.port"),
		DatabaseURL:   v.GetString("database.url"),
		RedisURL:      v.GetString("redis.url"),
		NatsURL:       v.GetString("nats.url"),
		NatsSubject:   v.GetString("nats.subject"),
		JWTSecret:     v.GetString("jwt.secret"),
		MarksCacheTTL: ttl,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	return cfg, nil
}

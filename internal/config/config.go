package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string
	Env  string

	RedisURL  string
	RedisPass string
	RedisDB   int

	PostgresURL string

	JWTSecret string

	PriceFeedURL string

	BettingDuration      time.Duration
	CrashDisplayDuration time.Duration
	TickInterval         time.Duration
	GrowthRate           float64
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		Env:          getEnv("ENV", "development"),
		RedisURL:     getEnv("REDIS_URL", "localhost:6379"),
		RedisPass:    getEnv("REDIS_PASSWORD", ""),
		PostgresURL:  getEnv("POSTGRES_URL", ""),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		PriceFeedURL: getEnv("PRICE_FEED_URL", ""),

		BettingDuration:      getDuration("BETTING_DURATION", 10*time.Second),
		CrashDisplayDuration: getDuration("CRASH_DISPLAY_DURATION", 5*time.Second),
		TickInterval:         getDuration("TICK_INTERVAL", 100*time.Millisecond),
		GrowthRate:           getFloat("GROWTH_RATE", 0.1),
	}

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %v", err)
	}
	cfg.RedisDB = db

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret-do-not-use-in-production"
	}

	if cfg.GrowthRate <= 0 {
		return nil, fmt.Errorf("GROWTH_RATE must be positive, got %f", cfg.GrowthRate)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	AppPort string
	AppEnv  string

	StripeSecretKey string
	JWTSecret       string
	ClientURL       string
	RedisAddr       string

	ReconcileInterval time.Duration
	ReconcileMaxAge   time.Duration
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),

		AppPort: getEnv("APP_PORT", "8080"),
		AppEnv:  os.Getenv("APP_ENV"),

		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		ClientURL:       os.Getenv("CLIENT_URL"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),

		ReconcileInterval: getDuration("RECONCILE_INTERVAL", time.Minute),
		ReconcileMaxAge:   getDuration("RECONCILE_MAX_AGE", 30*time.Minute),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid duration for %s: %q, using default %s", key, v, fallback)
		return fallback
	}
	return d
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Environment   string
	AllowedOrigin string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AuthSecret    string
	TokenTTLHours int
	OTPTTLMinutes int
	SeedDemoData  bool
}

// Load reads configuration from the environment, after sourcing a .env
// file when one is present.
func Load() Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL, err := strconv.Atoi(getEnv("TOKEN_TTL_HOURS", "24"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 24
	}
	otpTTL, err := strconv.Atoi(getEnv("OTP_TTL_MINUTES", "5"))
	if err != nil || otpTTL < 1 {
		otpTTL = 5
	}

	cfg := Config{
		Port:          getEnv("PORT", "5000"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		AuthSecret:    strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		TokenTTLHours: tokenTTL,
		OTPTTLMinutes: otpTTL,
		SeedDemoData:  strings.EqualFold(getEnv("SEED_DEMO_DATA", "true"), "true"),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Production reports whether cookies should carry the Secure flag.
func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

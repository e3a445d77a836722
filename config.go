package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Addr          string
	DBPath        string
	Storage       string // "sqlite" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisPrefix   string

	APILatency         time.Duration
	TokenTTL           time.Duration
	EnforceTokenExpiry bool
	BcryptCost         int
	PageSize           int

	SecureCookies bool
}

// loadConfig reads the environment. Call godotenv.Load first to pick up .env.
func loadConfig() Config {
	cfg := Config{
		Addr:          getEnv("BLOG_ADDR", ":8080"),
		DBPath:        getEnv("BLOG_DB", "blog.db"),
		Storage:       getEnv("BLOG_STORAGE", "sqlite"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisPrefix:   getEnv("REDIS_PREFIX", "blogger:"),

		APILatency:         getDuration("BLOG_API_LATENCY", 500*time.Millisecond),
		TokenTTL:           getDuration("BLOG_TOKEN_TTL", 24*time.Hour),
		EnforceTokenExpiry: getBool("BLOG_ENFORCE_TOKEN_EXPIRY", true),
		BcryptCost:         getInt("BLOG_BCRYPT_COST", bcrypt.DefaultCost),
		PageSize:           getInt("BLOG_PAGE_SIZE", 10),

		SecureCookies: os.Getenv("SECURE_COOKIES") == "true",
	}

	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		log.Printf("WARNING: BLOG_BCRYPT_COST %d out of range, using default", cfg.BcryptCost)
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = 10
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("WARNING: invalid %s %q, using %s", key, value, fallback)
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("WARNING: invalid %s %q, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("WARNING: invalid %s %q, using %t", key, value, fallback)
		return fallback
	}
	return b
}

package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	TemplatesPath string
	UploadDir     string

	// FNS API (api-fns.ru) - обогащение данных по ИНН
	FNSEnabled bool
	FNSBaseURL string
	FNSAPIKey  string
	FNSTimeout time.Duration

	// Redis - кэш аналитики (опционально)
	RedisAddr     string
	RedisDB       int
	CacheTTL      time.Duration
	CacheDisabled bool
}

func Load() *Config {
	cfg := &Config{
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:   getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=mosprom port=5432 sslmode=disable"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		CORSOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		TemplatesPath: getEnv("TEMPLATES_PATH", "./templates"),
		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),

		FNSEnabled: getEnvBool("FNS_API_ENABLED", false),
		FNSBaseURL: getEnv("FNS_API_BASE_URL", "https://api-fns.ru/api"),
		FNSAPIKey:  getEnv("FNS_API_KEY", ""),
		FNSTimeout: getEnvDuration("FNS_API_TIMEOUT", 30*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheDisabled: getEnvBool("CACHE_DISABLED", false),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.FNSEnabled && cfg.FNSAPIKey == "" {
		log.Println("[WARN] FNS_API_ENABLED is set but FNS_API_KEY is empty, registry lookups will fail")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

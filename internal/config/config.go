package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// Session
	IdleThreshold time.Duration

	// Report
	StatusPolicy        string
	IdleRatioThreshold  float64
	ReportMaxDays       int
	SnapshotConcurrency int

	// Rate Limit
	RateLimitGeneral int
	RateLimitLogin   int

	// Seed
	SeedAgentCount int
	SeedPassword   string

	// Logging
	LogLevel string

	// Metrics
	MetricsEnabled bool

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合、または値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 25)
	cfg.DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 5)
	cfg.DBConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 8*time.Hour)
	cfg.IdleThreshold = getEnvDuration("IDLE_THRESHOLD", 5*time.Minute)
	cfg.StatusPolicy = strings.ToLower(getEnvString("STATUS_POLICY", "caller"))
	cfg.IdleRatioThreshold = getEnvFloat("IDLE_RATIO_THRESHOLD", 0.2)
	cfg.ReportMaxDays = getEnvInt("REPORT_MAX_DAYS", 93)
	cfg.SnapshotConcurrency = getEnvInt("SNAPSHOT_CONCURRENCY", 8)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.SeedAgentCount = getEnvInt("SEED_AGENT_COUNT", 5)
	cfg.SeedPassword = getEnvString("SEED_PASSWORD", "")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.MetricsEnabled = getEnvBool("METRICS_ENABLED", true)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var invalid []string

	switch c.StatusPolicy {
	case "caller", "idle_ratio":
	default:
		invalid = append(invalid, "STATUS_POLICY")
	}
	if c.IdleRatioThreshold < 0 || c.IdleRatioThreshold > 1 {
		invalid = append(invalid, "IDLE_RATIO_THRESHOLD")
	}
	if c.IdleThreshold <= 0 {
		invalid = append(invalid, "IDLE_THRESHOLD")
	}
	if c.TokenTTL <= 0 {
		invalid = append(invalid, "TOKEN_TTL")
	}
	if c.ReportMaxDays <= 0 {
		invalid = append(invalid, "REPORT_MAX_DAYS")
	}
	if c.SnapshotConcurrency <= 0 {
		invalid = append(invalid, "SNAPSHOT_CONCURRENCY")
	}
	if c.RateLimitGeneral <= 0 {
		invalid = append(invalid, "RATE_LIMIT_GENERAL")
	}
	if c.RateLimitLogin <= 0 {
		invalid = append(invalid, "RATE_LIMIT_LOGIN")
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid environment variables: %v", invalid)
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

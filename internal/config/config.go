package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	RequestTimeout     time.Duration

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret     string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration
	ConfirmTTL    time.Duration
	ResetTTL      time.Duration
	SnapshotTTL   time.Duration
	BcryptCost    int

	PublicBaseURL string
	CORSOrigins   []string
	RateLimitRPM  int
	AuthRateLimit int
	MeRateLimit   int

	MailHost     string
	MailPort     int
	MailUsername string
	MailPassword string
	MailFrom     string
	MailFromName string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		ServerReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),

		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 2)),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
		RedisDB:       getInt("REDIS_DB", 0),

		JWTSecret:     strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTAccessTTL:  getDuration("JWT_ACCESS_TTL", time.Hour),
		JWTRefreshTTL: getDuration("JWT_REFRESH_TTL", 168*time.Hour),
		ConfirmTTL:    getDuration("CONFIRM_TOKEN_TTL", 168*time.Hour),
		ResetTTL:      getDuration("RESET_TOKEN_TTL", time.Hour),
		SnapshotTTL:   getDuration("SNAPSHOT_CACHE_TTL", 600*time.Second),
		BcryptCost:    getInt("BCRYPT_COST", 12),

		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		CORSOrigins:   splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:  getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimit: getInt("AUTH_RATE_LIMIT_RPM", 10),
		MeRateLimit:   getInt("ME_RATE_LIMIT_RPM", 10),

		MailHost:     getEnv("MAIL_HOST", "localhost"),
		MailPort:     getInt("MAIL_PORT", 587),
		MailUsername: strings.TrimSpace(os.Getenv("MAIL_USERNAME")),
		MailPassword: strings.TrimSpace(os.Getenv("MAIL_PASSWORD")),
		MailFrom:     getEnv("MAIL_FROM", "noreply@contacts.local"),
		MailFromName: getEnv("MAIL_FROM_NAME", "Contacts API"),

		S3Endpoint:  strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Bucket:    getEnv("S3_BUCKET", "avatars"),
		S3AccessKey: strings.TrimSpace(os.Getenv("S3_ACCESS_KEY")),
		S3SecretKey: strings.TrimSpace(os.Getenv("S3_SECRET_KEY")),
		S3PublicURL: strings.TrimSpace(os.Getenv("S3_PUBLIC_URL")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.JWTAccessTTL <= 0 || c.JWTRefreshTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}

	if c.ConfirmTTL <= 0 || c.ResetTTL <= 0 {
		return fmt.Errorf("single-purpose token TTLs must be positive")
	}

	if c.SnapshotTTL <= 0 {
		return fmt.Errorf("SNAPSHOT_CACHE_TTL must be positive")
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultScoringLockTTL is how long a scoring lease lives without renewal.
	DefaultScoringLockTTL = 10 * time.Minute

	// DefaultSnapshotInterval is how often public board snapshots are
	// published to object storage.
	DefaultSnapshotInterval = 60 * time.Second
)

// Config holds all application configuration.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	ScoringLockTTL     time.Duration
	ScoringLockBackend string // "memory" or "redis"
	RedisAddr          string
	RedisPassword      string

	SnapshotInterval time.Duration

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// SnapshotsEnabled reports whether board snapshots should be published.
// Publishing needs the full R2 credential set.
func (c *Config) SnapshotsEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" &&
		c.R2SecretAccessKey != "" && c.R2BucketName != ""
}

// Load reads configuration from environment variables. A .env file is loaded
// first when present, which keeps local development simple.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	lockTTL := DefaultScoringLockTTL
	if ttlStr := os.Getenv("SCORING_LOCK_TTL"); ttlStr != "" {
		lockTTL, err = time.ParseDuration(ttlStr)
		if err != nil {
			return nil, fmt.Errorf("invalid SCORING_LOCK_TTL environment variable: %w", err)
		}
		if lockTTL <= 0 {
			return nil, fmt.Errorf("SCORING_LOCK_TTL must be positive, got %s", lockTTL)
		}
	}

	lockBackend := os.Getenv("SCORING_LOCK_BACKEND")
	if lockBackend == "" {
		lockBackend = "memory"
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	switch lockBackend {
	case "memory":
	case "redis":
		if redisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when SCORING_LOCK_BACKEND is redis")
		}
	default:
		return nil, fmt.Errorf("SCORING_LOCK_BACKEND must be memory or redis, got %q", lockBackend)
	}

	snapshotInterval := DefaultSnapshotInterval
	if intervalStr := os.Getenv("SNAPSHOT_INTERVAL"); intervalStr != "" {
		snapshotInterval, err = time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("invalid SNAPSHOT_INTERVAL environment variable: %w", err)
		}
		if snapshotInterval <= 0 {
			return nil, fmt.Errorf("SNAPSHOT_INTERVAL must be positive, got %s", snapshotInterval)
		}
	}

	cfg := &Config{
		DatabaseURL:  dbURL,
		JWTSecretKey: jwtKey,
		ServerPort:   port,

		ScoringLockTTL:     lockTTL,
		ScoringLockBackend: lockBackend,
		RedisAddr:          redisAddr,
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),

		SnapshotInterval: snapshotInterval,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}

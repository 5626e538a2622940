package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pstrings "docverify/pkg/platform/strings"
)

// Config is the full runtime configuration, assembled from the environment.
type Config struct {
	Server    Server
	Postgres  PostgresConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
	Kafka     KafkaConfig
	Audit     AuditConfig
	Seed      SeedConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr      string
	BaseURL   string
	LogLevel  string
	LogFormat string
	OpsToken  string
	// PublicIntakeOwner is the admin id that owns self-service uploads.
	// Empty disables the public upload route.
	PublicIntakeOwner string
}

// PostgresConfig selects the Postgres-backed stores when DSN is set.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// RedisConfig enables the Redis revocation list and rate-limit buckets when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type AuthConfig struct {
	JWTSigningKey    string
	Issuer           string
	Audience         string
	TokenTTL         time.Duration
	LockoutThreshold int
	LockoutDuration  time.Duration
	BcryptCost       int
}

// StorageConfig selects where uploaded documents live.
type StorageConfig struct {
	Driver         string // "s3" or "local"
	Bucket         string
	Region         string
	Endpoint       string
	UploadDir      string
	MaxUploadBytes int64
}

type RateLimitConfig struct {
	Disabled     bool
	AuthLimit    int
	AuthWindow   time.Duration
	LookupLimit  int
	LookupWindow time.Duration
	UploadLimit  int
	UploadWindow time.Duration
}

// KafkaConfig enables the audit fan-out sink when Brokers is non-empty.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

type AuditConfig struct {
	Async         bool
	BufferSize    int
	FlushInterval time.Duration
	BatchSize     int
}

// SeedConfig describes the bootstrap superadmin created by cmd/seed.
type SeedConfig struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

const defaultJWTSigningKey = "dev-secret-key-change-in-production"

// FromEnv builds a Config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present; real
// environment variables take precedence over it.
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	cfg := Config{
		Server: Server{
			Addr:              getString("DOCVERIFY_ADDR", ":8080"),
			BaseURL:           strings.TrimRight(getString("BASE_URL", "http://localhost:8080"), "/"),
			LogLevel:          getString("LOG_LEVEL", "info"),
			LogFormat:         getString("LOG_FORMAT", "json"),
			OpsToken:          os.Getenv("OPS_TOKEN"),
			PublicIntakeOwner: os.Getenv("PUBLIC_INTAKE_ADMIN_ID"),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			AutoMigrate:     getBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Auth: AuthConfig{
			JWTSigningKey:    getString("JWT_SIGNING_KEY", defaultJWTSigningKey),
			Issuer:           getString("JWT_ISSUER", "docverify"),
			Audience:         getString("JWT_AUDIENCE", "docverify-admin"),
			TokenTTL:         getDuration("JWT_EXPIRE", 15*time.Minute),
			LockoutThreshold: getInt("LOGIN_MAX_ATTEMPTS", 5),
			LockoutDuration:  getDuration("LOGIN_LOCK_DURATION", 15*time.Minute),
			BcryptCost:       getInt("BCRYPT_COST", 12),
		},
		Storage: StorageConfig{
			Driver:         getString("STORAGE_DRIVER", "local"),
			Bucket:         os.Getenv("AWS_S3_BUCKET"),
			Region:         getString("AWS_REGION", "us-east-1"),
			Endpoint:       os.Getenv("AWS_S3_ENDPOINT"),
			UploadDir:      getString("UPLOAD_DIR", "uploads"),
			MaxUploadBytes: int64(getInt("MAX_UPLOAD_BYTES", 10*1024*1024)),
		},
		RateLimit: RateLimitConfig{
			Disabled:     getBool("RATE_LIMIT_DISABLED", false),
			AuthLimit:    getInt("AUTH_RATE_LIMIT", 5),
			AuthWindow:   getDuration("AUTH_RATE_WINDOW", 15*time.Minute),
			LookupLimit:  getInt("VERIFY_RATE_LIMIT", 60),
			LookupWindow: getDuration("VERIFY_RATE_WINDOW", time.Minute),
			UploadLimit:  getInt("UPLOAD_RATE_LIMIT", 3),
			UploadWindow: getDuration("UPLOAD_RATE_WINDOW", time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:    getList("KAFKA_BROKERS"),
			AuditTopic: getString("KAFKA_AUDIT_TOPIC", "docverify.audit"),
		},
		Audit: AuditConfig{
			Async:         getBool("AUDIT_ASYNC", false),
			BufferSize:    getInt("AUDIT_BUFFER_SIZE", 10000),
			FlushInterval: getDuration("AUDIT_FLUSH_INTERVAL", time.Second),
			BatchSize:     getInt("AUDIT_BATCH_SIZE", 100),
		},
		Seed: SeedConfig{
			Email:    os.Getenv("SUPERADMIN_EMAIL"),
			Password: os.Getenv("SUPERADMIN_PASSWORD"),
			Name:     os.Getenv("SUPERADMIN_NAME"),
			Phone:    getString("SUPERADMIN_PHONE", "+10000000000"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects combinations that cannot start.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.Bucket == "" {
			return errors.New("AWS_S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return errors.New("STORAGE_DRIVER must be 's3' or 'local'")
	}
	if c.Auth.LockoutThreshold <= 0 {
		return errors.New("LOGIN_MAX_ATTEMPTS must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("JWT_EXPIRE must be positive")
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

// UsesDefaultSigningKey reports whether the development JWT key is in use.
func (c Config) UsesDefaultSigningKey() bool {
	return c.Auth.JWTSigningKey == defaultJWTSigningKey
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// getDuration accepts Go durations ("15m") and the bare-number-of-minutes form
// ("15") older deployments use for JWT_EXPIRE.
func getDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Minute
	}
	return fallback
}

func getList(key string) []string {
	return pstrings.SplitList(os.Getenv(key), ",")
}

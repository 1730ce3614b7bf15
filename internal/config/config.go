package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds configuration for the gateway.
type Config struct {
	HTTPPort  string
	JWTSecret []byte

	// VaultKey is the base64-encoded AES master key used to seal
	// provider credentials. It lives only in the environment, never
	// beside the data it protects.
	VaultKey string

	Database DatabaseConfig
	Cache    CacheConfig
	Redis    RedisConfig
	Ledger   LedgerConfig
	Touch    TouchConfig
	Audit    AuditConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// CacheConfig holds cache settings
type CacheConfig struct {
	TokenCacheSize   int
	TokenCacheTTL    time.Duration
	CatalogCacheSize int
	CatalogCacheTTL  time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address      string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LedgerConfig holds ledger-related settings
type LedgerConfig struct {
	// StartingAllotment is the advanced-credit balance granted at
	// tenant registration.
	StartingAllotment int64
}

// TouchConfig holds settings for the last-used stamp worker
type TouchConfig struct {
	BatchSize    int
	BatchTimeout time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// AuditConfig holds configuration for the S3-based ledger audit sink
type AuditConfig struct {
	Enabled       bool
	BufferSize    int
	FlushSize     int
	FlushInterval time.Duration
	S3Bucket      string
	S3Region      string
	S3Prefix      string
	PodName       string
}

func getEnvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getEnvInt64(key string, defaultValue int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	intVal, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return defaultValue
	}
	return intVal
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(val)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getEnvString(key string, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	vaultKey := os.Getenv("VAULT_MASTER_KEY")
	if vaultKey == "" {
		return nil, fmt.Errorf("VAULT_MASTER_KEY is required")
	}

	cfg := &Config{
		HTTPPort:  getEnvString("HTTP_PORT", "8080"),
		JWTSecret: []byte(getEnvString("JWT_SECRET", "supersecretkey")),
		VaultKey:  vaultKey,
		Database: DatabaseConfig{
			URL:             dbURL,
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute),
		},
		Cache: CacheConfig{
			TokenCacheSize:   getEnvInt("CACHE_TOKEN_SIZE", 1000),
			TokenCacheTTL:    getEnvDuration("CACHE_TOKEN_TTL", 5*time.Minute),
			CatalogCacheSize: getEnvInt("CACHE_CATALOG_SIZE", 500),
			CatalogCacheTTL:  getEnvDuration("CACHE_CATALOG_TTL", 15*time.Minute),
		},
		Redis: RedisConfig{
			Address:      getEnvString("REDIS_ADDRESS", ""),
			Password:     getEnvString("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Ledger: LedgerConfig{
			StartingAllotment: getEnvInt64("LEDGER_STARTING_ALLOTMENT", 50),
		},
		Touch: TouchConfig{
			BatchSize:    getEnvInt("TOUCH_BATCH_SIZE", 100),
			BatchTimeout: getEnvDuration("TOUCH_BATCH_TIMEOUT", 5*time.Second),
			MaxRetries:   getEnvInt("TOUCH_MAX_RETRIES", 3),
			RetryBackoff: getEnvDuration("TOUCH_RETRY_BACKOFF", 1*time.Second),
		},
		Audit: AuditConfig{
			Enabled:       getEnvString("AUDIT_SINK_ENABLED", "false") == "true",
			BufferSize:    getEnvInt("AUDIT_SINK_BUFFER_SIZE", 10000),
			FlushSize:     getEnvInt("AUDIT_SINK_FLUSH_SIZE", 1000),
			FlushInterval: getEnvDuration("AUDIT_SINK_FLUSH_INTERVAL", 5*time.Minute),
			S3Bucket:      getEnvString("AUDIT_SINK_S3_BUCKET", ""),
			S3Region:      getEnvString("AUDIT_SINK_S3_REGION", "us-east-1"),
			S3Prefix:      getEnvString("AUDIT_SINK_S3_PREFIX", "ledger/"),
			PodName:       getEnvString("POD_NAME", "gateway-0"),
		},
	}

	return cfg, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Storage    StorageConfig
	Auth       AuthConfig
	Extraction ExtractionConfig
	Queue      QueueConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Backend     string // "local" or "supabase"
	LocalRoot   string
	SupabaseURL string
	SupabaseKey string
	Bucket      string
}

type AuthConfig struct {
	JWTSecret    string
	APIKey       string
	APIKeyHeader string
}

// ExtractionConfig is the recognized policy surface of the extraction
// pipeline. BatchSize 0 selects single-transaction mode.
type ExtractionConfig struct {
	BatchSize          int
	MaxErrorPercentage float64
	TextThreshold      int
	Languages          []string
	RenderScale        int
}

type QueueConfig struct {
	MaxRetries     int
	RetryBaseDelay time.Duration
	Concurrency    int
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	batchSize, err := getEnvInt("BATCH_SIZE", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid BATCH_SIZE: %w", err)
	}

	maxErrorPct, err := getEnvFloat("MAX_ERROR_PERCENTAGE", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_ERROR_PERCENTAGE: %w", err)
	}

	textThreshold, err := getEnvInt("OCR_TEXT_THRESHOLD", 50)
	if err != nil {
		return nil, fmt.Errorf("invalid OCR_TEXT_THRESHOLD: %w", err)
	}

	renderScale, err := getEnvInt("OCR_RENDER_SCALE", 4)
	if err != nil {
		return nil, fmt.Errorf("invalid OCR_RENDER_SCALE: %w", err)
	}

	maxRetries, err := getEnvInt("MAX_RETRIES", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_RETRIES: %w", err)
	}

	retryBaseDelay, err := getEnvDuration("RETRY_BASE_DELAY", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid RETRY_BASE_DELAY: %w", err)
	}

	concurrency, err := getEnvInt("WORKER_CONCURRENCY", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Storage: StorageConfig{
			Backend:     getEnv("STORAGE_BACKEND", "local"),
			LocalRoot:   getEnv("STORAGE_LOCAL_ROOT", "data/attachments"),
			SupabaseURL: getEnv("SUPABASE_URL", ""),
			SupabaseKey: getEnv("SUPABASE_SERVICE_KEY", ""),
			Bucket:      getEnv("STORAGE_BUCKET", "attachments"),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", ""),
			APIKey:       getEnv("API_KEY", ""),
			APIKeyHeader: getEnv("API_KEY_HEADER", "X-API-Key"),
		},
		Extraction: ExtractionConfig{
			BatchSize:          batchSize,
			MaxErrorPercentage: maxErrorPct,
			TextThreshold:      textThreshold,
			Languages:          splitList(getEnv("OCR_LANGUAGES", "eng")),
			RenderScale:        renderScale,
		},
		Queue: QueueConfig{
			MaxRetries:     maxRetries,
			RetryBaseDelay: retryBaseDelay,
			Concurrency:    concurrency,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Storage.Backend == "supabase" && c.Storage.SupabaseURL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if c.Auth.JWTSecret == "" && c.Auth.APIKey == "" {
		missing = append(missing, "JWT_SECRET or API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if c.Extraction.BatchSize < 0 {
		return fmt.Errorf("BATCH_SIZE must be >= 0")
	}
	if c.Extraction.MaxErrorPercentage < 0 || c.Extraction.MaxErrorPercentage > 100 {
		return fmt.Errorf("MAX_ERROR_PERCENTAGE must be between 0 and 100")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	// Accept plain seconds for compatibility with older deployments.
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

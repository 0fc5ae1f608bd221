package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/docker/go-units"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds settings for the S3-compatible import inbox.
// Imports are disabled when Endpoint is empty.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether an inbox is configured.
func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != ""
}

// DocumentsConfig holds the admission and image transform limits.
type DocumentsConfig struct {
	MaxFileSizeBytes        int64
	MaxImageDimensionPx     int
	ImageCompressionQuality float64
}

// CacheConfig sizes the document lookup cache. Size 0 disables it.
type CacheConfig struct {
	Size int
	TTL  time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string
	Port        string
	Location    *time.Location
	LogLevel    string
	StoreDriver string
	Database    DatabaseConfig
	MinIO       MinIOConfig
	Documents   DocumentsConfig
	Cache       CacheConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:     getEnv("APP_HOST", "localhost:8080"),
		Port:        getEnv("PORT", "8080"),
		Location:    getEnvLocation("TZ_LOCATION", time.UTC),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		StoreDriver: getEnv("STORE_DRIVER", StoreDriverPostgres),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "inbox"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Documents: DocumentsConfig{
			MaxFileSizeBytes:        getEnvSize("DOC_MAX_FILE_SIZE", 50*units.MiB),
			MaxImageDimensionPx:     getEnvInt("DOC_MAX_IMAGE_DIMENSION", 2048),
			ImageCompressionQuality: getEnvFloat("DOC_IMAGE_QUALITY", 0.8),
		},
		Cache: CacheConfig{
			Size: getEnvInt("CACHE_SIZE", 256),
			TTL:  time.Duration(getEnvInt("CACHE_TTL_SEC", 300)) * time.Second,
		},
	}
}

// Validate rejects settings the service cannot run with.
func (c *AppConfig) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: must be %s or %s", c.StoreDriver, StoreDriverPostgres, StoreDriverMemory)
	}
	if c.Documents.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("DOC_MAX_FILE_SIZE must be positive")
	}
	if c.Documents.MaxImageDimensionPx <= 0 {
		return fmt.Errorf("DOC_MAX_IMAGE_DIMENSION must be positive")
	}
	if q := c.Documents.ImageCompressionQuality; q <= 0 || q > 1 {
		return fmt.Errorf("DOC_IMAGE_QUALITY must be in (0, 1], got %v", q)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

// getEnvSize accepts plain byte counts ("52428800") and binary human sizes ("50MiB", "50m").
func getEnvSize(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		n, err := units.RAMInBytes(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getEnvLocation(key string, def *time.Location) *time.Location {
	if v := os.Getenv(key); v != "" {
		loc, err := time.LoadLocation(v)
		if err == nil {
			return loc
		}
	}
	return def
}

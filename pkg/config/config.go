package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds client configuration from environment variables
type Config struct {
	// Remote storefront API
	APIBaseURL     string        `yaml:"api_base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Persisted session storage: file | memory | sqlite | mysql | redis
	StorageBackend string `yaml:"storage_backend"`
	ProfileDir     string `yaml:"profile_dir"`

	// SQL storage (mysql backend)
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`

	// Redis storage
	RedisAddr      string `yaml:"redis_addr"`
	RedisPassword  string `yaml:"redis_password"`
	RedisDB        int    `yaml:"redis_db"`
	RedisKeyPrefix string `yaml:"redis_key_prefix"`

	// Logging
	LogLevel  string `yaml:"log_level"`  // trace|debug|info|warn|error
	LogFormat string `yaml:"log_format"` // json|console

	// OpenTelemetry
	OTELMetricsEnabled        bool   `yaml:"otel_metrics_enabled"`
	OTELExporterOTLPEndpoint  string `yaml:"otel_exporter_otlp_endpoint"`
	OTELExporterOTLPHeaders   string `yaml:"otel_exporter_otlp_headers"` // key1=value1,key2=value2
	OTELExporterOTLPInsecure  bool   `yaml:"otel_exporter_otlp_insecure"`
	OTELServiceName           string `yaml:"otel_service_name"`
	OTELServiceVersion        string `yaml:"otel_service_version"`
	OTELDeploymentEnvironment string `yaml:"otel_deployment_environment"`
}

// LoadConfig loads configuration from .env file and environment variables with defaults.
// When STOREFRONT_CONFIG names a YAML file, its non-zero values override the result.
func LoadConfig() *Config {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		APIBaseURL:     getEnv("STOREFRONT_API_URL", "http://localhost:5000/api"),
		RequestTimeout: getEnvDuration("STOREFRONT_TIMEOUT", 10*time.Second),

		StorageBackend: getEnv("STOREFRONT_STORAGE", "file"),
		ProfileDir:     getEnv("STOREFRONT_PROFILE_DIR", defaultProfileDir()),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "storefront"),

		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "storefront:"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		OTELMetricsEnabled:        getEnvBool("OTEL_METRICS_ENABLED", false),
		OTELExporterOTLPEndpoint:  getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTELExporterOTLPHeaders:   getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
		OTELExporterOTLPInsecure:  getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELServiceName:           getEnv("OTEL_SERVICE_NAME", "storefront-client"),
		OTELServiceVersion:        getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
		OTELDeploymentEnvironment: getEnv("OTEL_DEPLOYMENT_ENVIRONMENT", "development"),
	}

	if path := os.Getenv("STOREFRONT_CONFIG"); path != "" {
		if err := cfg.MergeFile(path); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
	return cfg
}

// MergeFile overlays the values set in a YAML file onto c.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	// Decoding into the existing struct keeps every key the file omits.
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// GetDSN returns the MySQL DSN string
func (c *Config) GetDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true&charset=utf8mb4"
}

// SQLitePath returns the sqlite database file used by the sqlite storage backend.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.ProfileDir, "session.db")
}

func defaultProfileDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".storefront"
	}
	return filepath.Join(home, ".storefront")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if value == "true" || value == "1" || value == "yes" {
			return true
		}
		return false
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

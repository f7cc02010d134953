// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	Port           string `mapstructure:"PORT"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`
	Env            string `mapstructure:"APP_ENV"`

	DBDriver                      string `mapstructure:"DB_DRIVER"`
	DBHost                        string `mapstructure:"DB_HOST"`
	DBPort                        string `mapstructure:"DB_PORT"`
	DBUser                        string `mapstructure:"DB_USER"`
	DBPassword                    string `mapstructure:"DB_PASSWORD"`
	DBName                        string `mapstructure:"DB_NAME"`
	DBSSLMode                     string `mapstructure:"DB_SSLMODE"`
	DBSchemaMode                  string `mapstructure:"DB_SCHEMA_MODE"`
	DBAutoMigrateAllowDestructive bool   `mapstructure:"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE"`
	DBMaxOpenConns                int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns                int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes      int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	RedisURL string `mapstructure:"REDIS_URL"`

	StorageDir    string `mapstructure:"STORAGE_DIR"`
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`
	MaxUploadMB   int    `mapstructure:"MAX_UPLOAD_MB"`

	ChatPollInterval time.Duration `mapstructure:"CHAT_POLL_INTERVAL"`

	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`

	DevRootAdminEmail    string `mapstructure:"DEV_ROOT_ADMIN_EMAIL"`
	DevRootAdminPassword string `mapstructure:"DEV_ROOT_ADMIN_PASSWORD"`
}

// IsProduction reports whether the config targets a production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	// .env is optional; real deployments pass env vars directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment overrides from .env")
	}

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("PORT", "8375")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "campusnest")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_SCHEMA_MODE", "hybrid")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	viper.SetDefault("FEATURE_FLAGS", "realtime_chat=on")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("STORAGE_DIR", "./uploads")
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:8375/uploads")
	viper.SetDefault("MAX_UPLOAD_MB", 25)
	viper.SetDefault("CHAT_POLL_INTERVAL", "3s")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
	viper.SetDefault("DEV_ROOT_ADMIN_EMAIL", "")
	viper.SetDefault("DEV_ROOT_ADMIN_PASSWORD", "")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.DBSSLMode = strings.ToLower(strings.TrimSpace(config.DBSSLMode))
	config.DBDriver = strings.ToLower(strings.TrimSpace(config.DBDriver))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.MaxUploadMB < 0 {
		return errors.New("MAX_UPLOAD_MB must not be negative")
	}
	if c.TracingSampleRatio < 0 || c.TracingSampleRatio > 1 {
		return errors.New("TRACING_SAMPLE_RATIO must be between 0 and 1")
	}
	switch c.DBDriver {
	case "", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable TLS in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}

// MaxUploadBytes returns the upload size cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	if c.MaxUploadMB <= 0 {
		return 25 << 20
	}
	return int64(c.MaxUploadMB) << 20
}

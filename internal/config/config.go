package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL"`

	UploadBackend   string `mapstructure:"UPLOAD_BACKEND"`
	UploadDir       string `mapstructure:"UPLOAD_DIR"`
	UploadURLPrefix string `mapstructure:"UPLOAD_URL_PREFIX"`

	S3Bucket          string        `mapstructure:"S3_BUCKET"`
	S3Region          string        `mapstructure:"S3_REGION"`
	S3Endpoint        string        `mapstructure:"S3_ENDPOINT"`
	S3AccessKeyID     string        `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string        `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3URLTTL          time.Duration `mapstructure:"S3_URL_TTL"`

	RedisURL string `mapstructure:"REDIS_URL"`

	WSAllowedOrigins string `mapstructure:"WS_ALLOWED_ORIGINS"`
}

// AllowedOrigins splits WSAllowedOrigins into trimmed, non-empty entries.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.WSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

var defaults = map[string]any{
	"PORT":                 "8080",
	"ENVIRONMENT":          "development",
	"LOG_LEVEL":            "info",
	"DATABASE_DRIVER":      "postgres",
	"DATABASE_URL":         "",
	"JWT_SECRET":           "",
	"TOKEN_TTL":            7 * 24 * time.Hour,
	"UPLOAD_BACKEND":       "local",
	"UPLOAD_DIR":           "uploads",
	"UPLOAD_URL_PREFIX":    "/uploads",
	"S3_BUCKET":            "",
	"S3_REGION":            "auto",
	"S3_ENDPOINT":          "",
	"S3_ACCESS_KEY_ID":     "",
	"S3_SECRET_ACCESS_KEY": "",
	"S3_URL_TTL":           time.Hour,
	"REDIS_URL":            "",
	"WS_ALLOWED_ORIGINS":   "*",
}

// LoadConfig loads the configuration from a .env file and environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("env")

	// Defaults double as key registrations so AutomaticEnv picks them up on Unmarshal.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET is required")
	}
	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return nil, errors.New("config: DATABASE_DRIVER must be postgres or sqlite")
	}
	switch cfg.UploadBackend {
	case "local", "s3":
	default:
		return nil, errors.New("config: UPLOAD_BACKEND must be local or s3")
	}

	return &cfg, nil
}

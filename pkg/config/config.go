package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"imushare/pkg/store"
)

// Config holds all configuration for the application.
// Values come from defaults, an optional YAML file and the environment, in increasing priority.
type Config struct {
	BaseURL   string         `mapstructure:"APP_BASE_URL"`
	LogLevel  string         `mapstructure:"LOG_LEVEL"`
	LogFormat string         `mapstructure:"LOG_FORMAT"`
	Server    ServerConfig   `mapstructure:"SERVER"`
	Storage   StorageConfig  `mapstructure:"STORAGE"`
	Database  DatabaseConfig `mapstructure:"DATABASE"`
	Mail      MailConfig     `mapstructure:"MAIL"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Addr string `mapstructure:"ADDR"`
}

// StorageConfig holds configuration for uploaded file storage.
type StorageConfig struct {
	UploadDir   string `mapstructure:"UPLOAD_DIR"`
	MaxFileSize int64  `mapstructure:"MAX_FILE_SIZE"`
}

// DatabaseConfig holds configuration for the record database.
type DatabaseConfig struct {
	Path string `mapstructure:"PATH"`
}

// MailConfig holds configuration for share emails.
type MailConfig struct {
	Enabled      bool          `mapstructure:"ENABLED"`
	Host         string        `mapstructure:"HOST"`
	Port         int           `mapstructure:"PORT"`
	User         string        `mapstructure:"USER"`
	Password     string        `mapstructure:"PASSWORD"`
	EnvelopeFrom string        `mapstructure:"ENVELOPE_FROM"`
	Timeout      time.Duration `mapstructure:"TIMEOUT"`
	// SingleSend allows at most one successful share email per file.
	SingleSend bool `mapstructure:"SINGLE_SEND"`
}

// ValidationError describes one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// Load reads configuration from file or environment variables and validates it.
// An empty path looks for config.yaml in ./config and the working directory.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// STORAGE.UPLOAD_DIR is overridden by STORAGE_UPLOAD_DIR.
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_BASE_URL", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("SERVER.ADDR", ":3000")

	v.SetDefault("STORAGE.UPLOAD_DIR", "uploads")
	v.SetDefault("STORAGE.MAX_FILE_SIZE", store.DefaultMaxFileSize)

	v.SetDefault("DATABASE.PATH", "data/imushare.db")

	v.SetDefault("MAIL.ENABLED", false)
	v.SetDefault("MAIL.HOST", "")
	v.SetDefault("MAIL.PORT", 587)
	v.SetDefault("MAIL.USER", "")
	v.SetDefault("MAIL.PASSWORD", "")
	v.SetDefault("MAIL.ENVELOPE_FROM", "")
	v.SetDefault("MAIL.TIMEOUT", 30*time.Second)
	v.SetDefault("MAIL.SINGLE_SEND", false)
}

// Validate checks every setting and joins all failures into one error.
func (c *Config) Validate() error {
	var errs []error

	if parsed, err := url.Parse(c.BaseURL); err != nil || parsed.Host == "" ||
		(parsed.Scheme != "http" && parsed.Scheme != "https") {
		errs = append(errs, ValidationError{Field: "APP_BASE_URL", Message: "must be an absolute http(s) URL"})
	}
	if c.Server.Addr == "" {
		errs = append(errs, ValidationError{Field: "SERVER.ADDR", Message: "must not be empty"})
	}
	if c.Storage.UploadDir == "" {
		errs = append(errs, ValidationError{Field: "STORAGE.UPLOAD_DIR", Message: "must not be empty"})
	}
	if c.Storage.MaxFileSize <= 0 {
		errs = append(errs, ValidationError{Field: "STORAGE.MAX_FILE_SIZE", Message: "must be positive"})
	}
	if c.Database.Path == "" {
		errs = append(errs, ValidationError{Field: "DATABASE.PATH", Message: "must not be empty"})
	}
	if c.Mail.Enabled {
		if c.Mail.Host == "" {
			errs = append(errs, ValidationError{Field: "MAIL.HOST", Message: "required when mail is enabled"})
		}
		if c.Mail.Port <= 0 || c.Mail.Port > 65535 {
			errs = append(errs, ValidationError{Field: "MAIL.PORT", Message: "must be a valid port"})
		}
	}

	return errors.Join(errs...)
}

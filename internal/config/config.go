package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"deutschdrill/internal/validation"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DevJWTSecret is the signing key used when JWT_SECRET is not set
const DevJWTSecret = "deutschdrill-dev-secret-change-me"

// Config holds application configuration
type Config struct {
	Env      string         `mapstructure:"env" validate:"oneof=development production test"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Activity ActivityConfig `mapstructure:"activity"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Email    EmailConfig    `mapstructure:"email"`
}

type ServerConfig struct {
	Port          string        `mapstructure:"port" validate:"required,numeric"`
	UploadMaxSize int64         `mapstructure:"upload_max_size" validate:"min=1"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	Type           string `mapstructure:"type" validate:"oneof=sqlite sqlite3 postgres postgresql mysql"`
	Path           string `mapstructure:"path"`
	URL            string `mapstructure:"url"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

type AuthConfig struct {
	SessionDuration time.Duration `mapstructure:"session_duration" validate:"gt=0"`
	JWTSecret       string        `mapstructure:"jwt_secret" validate:"required,min=16"`
	TokenTTL        time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
	LoginRateLimit  int           `mapstructure:"login_rate_limit" validate:"min=1"`
	LoginRateWindow time.Duration `mapstructure:"login_rate_window" validate:"gt=0"`
}

type ActivityConfig struct {
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
}

type EmailConfig struct {
	Region     string `mapstructure:"region"`
	FromEmail  string `mapstructure:"from_email" validate:"omitempty,email"`
	FromName   string `mapstructure:"from_name"`
	AppBaseURL string `mapstructure:"app_base_url"`
}

// envBindings maps config keys to the environment variables that set them
var envBindings = map[string]string{
	"env":                      "APP_ENV",
	"server.port":              "PORT",
	"server.upload_max_size":   "UPLOAD_MAX_SIZE",
	"server.read_timeout":      "READ_TIMEOUT",
	"server.write_timeout":     "WRITE_TIMEOUT",
	"database.type":            "DB_TYPE",
	"database.path":            "DB_PATH",
	"database.url":             "DATABASE_URL",
	"database.migrations_path": "MIGRATIONS_PATH",
	"auth.session_duration":    "SESSION_DURATION",
	"auth.jwt_secret":          "JWT_SECRET",
	"auth.token_ttl":           "TOKEN_TTL",
	"auth.login_rate_limit":    "LOGIN_RATE_LIMIT",
	"auth.login_rate_window":   "LOGIN_RATE_WINDOW",
	"activity.timeout":         "ACTIVITY_TIMEOUT",
	"activity.sweep_interval":  "ACTIVITY_SWEEP_INTERVAL",
	"telegram.bot_token":       "TELEGRAM_BOT_TOKEN",
	"email.region":             "SES_REGION",
	"email.from_email":         "SES_FROM_EMAIL",
	"email.from_name":          "SES_FROM_NAME",
	"email.app_base_url":       "APP_BASE_URL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.upload_max_size", 5*1024*1024)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "./deutschdrill.db")
	v.SetDefault("database.url", "")
	v.SetDefault("database.migrations_path", "")
	v.SetDefault("auth.session_duration", 24*time.Hour)
	v.SetDefault("auth.jwt_secret", DevJWTSecret)
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("auth.login_rate_limit", 10)
	v.SetDefault("auth.login_rate_window", time.Minute)
	v.SetDefault("activity.timeout", 5*time.Minute)
	v.SetDefault("activity.sweep_interval", time.Minute)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("email.region", "eu-central-1")
	v.SetDefault("email.from_email", "")
	v.SetDefault("email.from_name", "Deutsch Drill")
	v.SetDefault("email.app_base_url", "http://localhost:8080")
}

// Load reads configuration from .env, an optional deutschdrill.yaml and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	v.SetConfigName("deutschdrill")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("configs")
	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and cross-field rules
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	switch strings.ToLower(c.Database.Type) {
	case "sqlite", "sqlite3":
		if c.Database.Path == "" {
			return errors.New("DB_PATH is required for sqlite")
		}
	default:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for %s", c.Database.Type)
		}
	}

	if c.Env == "production" && c.Auth.JWTSecret == DevJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}

	return nil
}

// IsDevelopment reports whether the app runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// EmailEnabled reports whether report emails can be sent
func (c *Config) EmailEnabled() bool {
	return c.Email.FromEmail != ""
}

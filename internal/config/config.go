package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds runtime configuration sourced from env vars and an optional config file.
type Config struct {
	Port          string
	StorageDriver string
	DatabaseURL   string
	JWTSecret     string
	JWTIssuer     string
	JWTTTL        time.Duration
	CORSOrigins   []string
	CookieSecure  bool
	StaticDir     string
	LogLevel      slog.Level

	ImageUploadURL string
	ImageUploadKey string

	KafkaBrokers []string
	KafkaTopic   string

	TelegramToken  string
	TelegramChatID int64

	StrictOrderTransitions bool

	ResetTokenTTL time.Duration
	ResetURLBase  string
	SMTP          SMTPConfig
}

// SMTPConfig configures the password reset mailer. An empty Host disables SMTP.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Load reads configuration from the environment and performs minimal validation.
// Keys are the lower-case env names, so config/config.yaml may set any of them.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("storage_driver", StoragePostgres)
	v.SetDefault("jwt_issuer", "foodie-backend")
	v.SetDefault("jwt_ttl_minutes", 60)
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("image_upload_url", "https://api.imgbb.com/1/upload")
	v.SetDefault("kafka_topic", "orders")
	v.SetDefault("strict_order_transitions", false)
	v.SetDefault("reset_token_ttl_minutes", 30)
	v.SetDefault("reset_url_base", "http://localhost:5173/forget-password")
	v.SetDefault("smtp_port", 587)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Port:                   trimmed(v, "port"),
		StorageDriver:          strings.ToLower(trimmed(v, "storage_driver")),
		DatabaseURL:            trimmed(v, "database_url"),
		JWTSecret:              trimmed(v, "jwt_secret"),
		JWTIssuer:              trimmed(v, "jwt_issuer"),
		JWTTTL:                 minutes(v, "jwt_ttl_minutes", 60),
		CORSOrigins:            parseCSV(trimmed(v, "cors_allowed_origins")),
		CookieSecure:           v.GetBool("cookie_secure"),
		StaticDir:              trimmed(v, "static_dir"),
		LogLevel:               parseLevel(trimmed(v, "log_level")),
		ImageUploadURL:         trimmed(v, "image_upload_url"),
		ImageUploadKey:         trimmed(v, "image_upload_key"),
		KafkaBrokers:           parseList(trimmed(v, "kafka_brokers")),
		KafkaTopic:             trimmed(v, "kafka_topic"),
		TelegramToken:          trimmed(v, "telegram_token"),
		TelegramChatID:         v.GetInt64("telegram_chat_id"),
		StrictOrderTransitions: v.GetBool("strict_order_transitions"),
		ResetTokenTTL:          minutes(v, "reset_token_ttl_minutes", 30),
		ResetURLBase:           trimmed(v, "reset_url_base"),
		SMTP: SMTPConfig{
			Host:     trimmed(v, "smtp_host"),
			Port:     v.GetInt("smtp_port"),
			Username: trimmed(v, "smtp_username"),
			Password: v.GetString("smtp_password"),
			From:     trimmed(v, "smtp_from"),
		},
	}

	switch cfg.StorageDriver {
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required")
		}
	case StorageMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// UploadsEnabled reports whether menu images can be pushed to the image host.
func (c Config) UploadsEnabled() bool {
	return c.ImageUploadURL != "" && c.ImageUploadKey != ""
}

func trimmed(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

func minutes(v *viper.Viper, key string, def int) time.Duration {
	n := v.GetInt(key)
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Minute
}

func parseLevel(input string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(input)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseCSV(input string) []string {
	out := parseList(input)
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseList(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

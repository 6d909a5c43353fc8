package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devJWTSecret = "change-me"

// Config holds application level configuration. It is built once at startup
// and passed to every component that needs it.
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Email       EmailConfig
	Logging     LoggingConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	SwaggerHost    string
}

type DatabaseConfig struct {
	DSN          string
	Name         string
	Timeout      time.Duration
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// EmailConfig configures invite notifications. Email is disabled when
// ResendAPIKey is empty.
type EmailConfig struct {
	ResendAPIKey string
	From         string
	AppBaseURL   string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Enabled reports whether invite emails should be sent.
func (c EmailConfig) Enabled() bool {
	return c.ResendAPIKey != ""
}

// Load builds Config from an optional .env file, the environment and an
// optional config file at path.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
			SwaggerHost:    v.GetString("SWAGGER_HOST"),
		},
		Database: DatabaseConfig{
			DSN:          v.GetString("MYSQL_DSN"),
			Name:         v.GetString("DB_NAME"),
			Timeout:      time.Duration(v.GetInt("DB_TIMEOUT_SECONDS")) * time.Second,
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			TokenTTL:  time.Duration(v.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES")) * time.Minute,
		},
		Email: EmailConfig{
			ResendAPIKey: v.GetString("RESEND_API_KEY"),
			From:         v.GetString("EMAIL_FROM"),
			AppBaseURL:   strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
		cfg.Auth.JWTSecret = devJWTSecret
	}
	if cfg.Auth.TokenTTL <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if cfg.Database.Timeout <= 0 {
		return nil, fmt.Errorf("DB_TIMEOUT_SECONDS must be positive")
	}
	return cfg, nil
}

// IsDevelopment reports whether the process runs in a development or test environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "test"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "production")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("SWAGGER_HOST", "")
	v.SetDefault("MYSQL_DSN", "user:password@tcp(localhost:3306)/?charset=utf8mb4&parseTime=True&loc=UTC")
	v.SetDefault("DB_NAME", "event_planner")
	v.SetDefault("DB_TIMEOUT_SECONDS", 5)
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 60)
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("EMAIL_FROM", "no-reply@eventplanner.local")
	v.SetDefault("APP_BASE_URL", "http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

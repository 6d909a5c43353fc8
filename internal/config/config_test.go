package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "event_planner", cfg.Database.Name)
	assert.Equal(t, 5*time.Second, cfg.Database.Timeout)
	assert.Equal(t, 60*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, devJWTSecret, cfg.Auth.JWTSecret)
	assert.False(t, cfg.Email.Enabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "15")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("DB_NAME", "planner_prod")
	t.Setenv("RESEND_API_KEY", "re_123")
	t.Setenv("APP_BASE_URL", "https://planner.example/")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "planner_prod", cfg.Database.Name)
	assert.True(t, cfg.Email.Enabled())
	assert.Equal(t, "https://planner.example", cfg.Email.AppBaseURL)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_RequiresSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load("")
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_UnsetEnvironmentRequiresSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load("")
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_RejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "0")

	_, err := Load("")
	assert.ErrorContains(t, err, "ACCESS_TOKEN_EXPIRE_MINUTES")
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_port: \"9090\"\ndb_name: from_file\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "from_file", cfg.Database.Name)
}

func TestNewLogger_Level(t *testing.T) {
	logger := NewLogger(LoggingConfig{Level: "debug", Format: "json"})
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	logger = NewLogger(LoggingConfig{Level: "nonsense"})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"APP_API_BASE_URL", "APP_SNACK_INFO_MS", "APP_RESEND_COOLDOWN", "APP_DB_ENGINE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := FromEnv()
	assert.Equal(t, "http://localhost:8080", cfg.APIBaseURL)
	assert.Equal(t, 15*time.Second, cfg.APITimeout)
	assert.Equal(t, "sqlite", cfg.DBEngine)
	assert.Equal(t, 60, cfg.ResendCooldownSeconds)
	assert.Equal(t, 600, cfg.TokenExpirySeconds)
	assert.Equal(t, 300*time.Millisecond, cfg.DocumentCheckDebounce)
	assert.Equal(t, 3000*time.Millisecond, cfg.SnackSuccessTTL)
	assert.Equal(t, 4000*time.Millisecond, cfg.SnackErrorTTL)
	assert.Equal(t, 3500*time.Millisecond, cfg.SnackInfoTTL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("APP_API_BASE_URL", "https://api.cei.com.br/")
	t.Setenv("APP_API_TIMEOUT", "5")
	t.Setenv("APP_LOG_LEVEL", "debug")
	t.Setenv("APP_SNACK_INFO_MS", "1000")
	t.Setenv("APP_RESEND_COOLDOWN", "abc")

	cfg := FromEnv()
	assert.Equal(t, "https://api.cei.com.br", cfg.APIBaseURL, "barra final removida")
	assert.Equal(t, 5*time.Second, cfg.APITimeout)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.SnackInfoTTL)
	assert.Equal(t, 60, cfg.ResendCooldownSeconds, "valor inválido cai no padrão")
}

func TestLoadConfigRejectsDefaultSecretOutsideDebug(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_DEBUG", "false")
	t.Setenv("SECRET_KEY", defaultSecretKey)
	t.Setenv("APP_LOG_DIR", filepath.Join(dir, "logs"))

	_, err := LoadConfig(filepath.Join(dir, "inexistente.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY")
}

func TestLoadConfigRejectsInvalidBaseURL(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_DEBUG", "true")
	t.Setenv("APP_API_BASE_URL", "localhost:8080")
	t.Setenv("APP_LOG_DIR", filepath.Join(dir, "logs"))

	_, err := LoadConfig(filepath.Join(dir, "inexistente.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_API_BASE_URL")
}

func TestLoadConfigReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "console.env")
	content := "APP_DEBUG=true\n" +
		"APP_API_BASE_URL=http://127.0.0.1:9090\n" +
		"APP_TOKEN_EXPIRY=120\n" +
		"APP_DB_NAME=" + filepath.Join(dir, "db", "estado.db") + "\n" +
		"APP_LOG_DIR=" + filepath.Join(dir, "logs") + "\n" +
		"APP_EXPORT_DIR=" + filepath.Join(dir, "exports") + "\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))
	for _, key := range []string{"APP_DEBUG", "APP_API_BASE_URL", "APP_TOKEN_EXPIRY", "APP_DB_NAME", "APP_LOG_DIR", "APP_EXPORT_DIR", "APP_DB_ENGINE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9090", cfg.APIBaseURL)
	assert.Equal(t, 120, cfg.TokenExpirySeconds)
	assert.DirExists(t, filepath.Join(dir, "logs"))
	assert.DirExists(t, filepath.Join(dir, "db"))
	assert.DirExists(t, filepath.Join(dir, "exports"))
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "user:pass@tcp(127.0.0.1:3306)/nutribowl?parseTime=true")
	t.Setenv("PORT", "")
	t.Setenv("ADMIN_API_KEY", "")
	t.Setenv("INVENTORY_SEED_PATH", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "5174", cfg.App.Port)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Equal(t, "admin", cfg.Admin.Password)
	assert.Equal(t, "admin", cfg.Admin.APIKey)
	assert.Equal(t, "data/inventory.yaml", cfg.Inventory.SeedPath)
	assert.False(t, cfg.IsProduction())
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ADMIN_API_KEY=from-file\n"), 0o600))

	t.Setenv("DB_DSN", "dsn")
	t.Setenv("ADMIN_API_KEY", "")
	// godotenv never overrides variables already present, so clear it first.
	require.NoError(t, os.Unsetenv("ADMIN_API_KEY"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Admin.APIKey)
}

func TestAllowedOrigins(t *testing.T) {
	cfg := &Config{}
	assert.Empty(t, cfg.AllowedOrigins())

	cfg.CORS.Origins = " https://shop.example.com, ,http://localhost:5173 "
	assert.Equal(t, []string{"https://shop.example.com", "http://localhost:5173"}, cfg.AllowedOrigins())
}

func TestTrustedProxies(t *testing.T) {
	cfg := &Config{}
	assert.Nil(t, cfg.TrustedProxies())

	cfg.HTTP.TrustedProxies = "10.0.0.0/8, 127.0.0.1"
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies())
}

func TestIsProduction(t *testing.T) {
	cfg := &Config{}
	cfg.App.Env = "production"
	assert.True(t, cfg.IsProduction())
}

// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("CONFIG_ENCRYPTION_KEY", "test-passphrase")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("ACCESS_KEYS", "")
	t.Setenv("ACCESS_KEYS_URL", "")
	t.Setenv("ACCESS_GATE_ENABLED", "")
	t.Setenv("GENERATION_TIMEOUT", "")

	configMutex.Lock()
	currentConfig = nil
	configMutex.Unlock()
	return dir
}

func TestInitConfigDefaults(t *testing.T) {
	dir := setupEnv(t)

	require.NoError(t, InitConfig(dir))
	cfg := GetCurrentConfig()

	assert.Equal(t, DefaultProvider, cfg.LLMProvider)
	assert.Equal(t, DefaultModel, cfg.LLMModel)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, DefaultGenerationTimeout, cfg.GenerationTimeout)
	assert.False(t, cfg.AccessGateEnabled)
	assert.FileExists(t, filepath.Join(dir, "config.toml"))
}

func TestAPIKeyIsEncryptedOnDisk(t *testing.T) {
	dir := setupEnv(t)
	require.NoError(t, InitConfig(dir))

	require.NoError(t, UpdateLLMConfig("google", "gemini-2.5-pro", "saved-key", map[string]string{"base_url": "http://x", "api_key": "ignored"}))

	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "saved-key")
	assert.Contains(t, string(data), "encrypted_api_key")

	// restart: the saved choice wins over the environment
	configMutex.Lock()
	currentConfig = nil
	configMutex.Unlock()
	require.NoError(t, InitConfig(dir))

	cfg := GetCurrentConfig()
	assert.Equal(t, "google", cfg.LLMProvider)
	assert.Equal(t, "gemini-2.5-pro", cfg.LLMModel)
	assert.Equal(t, "saved-key", cfg.APIKey)

	settings := cfg.ProviderSettings()
	assert.Equal(t, "saved-key", settings["api_key"])
	assert.Equal(t, "gemini-2.5-pro", settings["default_model"])
	assert.Equal(t, "http://x", settings["base_url"])
}

func TestGetCurrentConfigReturnsCopy(t *testing.T) {
	dir := setupEnv(t)
	require.NoError(t, InitConfig(dir))

	cfg := GetCurrentConfig()
	cfg.LLMConfig["base_url"] = "mutated"
	cfg.APIKey = ""

	fresh := GetCurrentConfig()
	assert.Empty(t, fresh.LLMConfig["base_url"])
	assert.True(t, fresh.HasAPIKey())
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_DURATION", "90")
	assert.Equal(t, 90*time.Second, getEnvDuration("X_DURATION", time.Second))
	t.Setenv("X_DURATION", "2m")
	assert.Equal(t, 2*time.Minute, getEnvDuration("X_DURATION", time.Second))
	t.Setenv("X_DURATION", "soon")
	assert.Equal(t, time.Second, getEnvDuration("X_DURATION", time.Second))

	t.Setenv("X_LIST", " a, ,b ,")
	assert.Equal(t, []string{"a", "b"}, getEnvList("X_LIST"))

	t.Setenv("X_BOOL", "YES")
	assert.True(t, getEnvBool("X_BOOL", false))
	t.Setenv("X_INT", "nope")
	assert.Equal(t, 7, getEnvInt("X_INT", 7))
}

func TestAccessGateFollowsKeySource(t *testing.T) {
	dir := setupEnv(t)
	t.Setenv("ACCESS_KEYS", "k1,k2")

	require.NoError(t, InitConfig(dir))
	cfg := GetCurrentConfig()
	assert.True(t, cfg.AccessGateEnabled)
	assert.Equal(t, []string{"k1", "k2"}, cfg.AccessKeys)
}

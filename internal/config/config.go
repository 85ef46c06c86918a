// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/Corphon/VeoPromptStudio/internal/utils"
)

const (
	DefaultProvider          = "gemini"
	DefaultModel             = "gemini-2.5-flash"
	DefaultGenerationTimeout = 120 * time.Second
	configFileName           = "config.toml"
)

var (
	currentConfig *AppConfig
	configMutex   sync.RWMutex
	configFile    string
)

// AppConfig is the live configuration. Fields tagged toml:"-" come from the
// environment on every start and are never written to config.toml.
type AppConfig struct {
	Port      string `toml:"port" json:"port"`
	DataDir   string `toml:"data_dir" json:"data_dir"`
	LogDir    string `toml:"log_dir" json:"log_dir"`
	DebugMode bool   `toml:"debug_mode" json:"debug_mode"`
	LogLevel  string `toml:"log_level" json:"log_level"`

	LLMProvider string            `toml:"llm_provider" json:"llm_provider"`
	LLMModel    string            `toml:"llm_model" json:"llm_model"`
	LLMConfig   map[string]string `toml:"llm_config,omitempty" json:"llm_config,omitempty"`

	// API key, AES-GCM sealed with CONFIG_ENCRYPTION_KEY
	EncryptedAPIKey string `toml:"encrypted_api_key,omitempty" json:"-"`
	APIKey          string `toml:"-" json:"-"`

	AccessKeysURL     string        `toml:"-" json:"-"`
	AccessKeys        []string      `toml:"-" json:"-"`
	AccessGateEnabled bool          `toml:"-" json:"access_gate_enabled"`
	AuthSecretKey     string        `toml:"-" json:"-"`
	NATSURL           string        `toml:"-" json:"-"`
	RateLimitRPM      int           `toml:"-" json:"rate_limit_rpm"`
	GenerationTimeout time.Duration `toml:"-" json:"generation_timeout"`
	EncryptionKey     string        `toml:"-" json:"-"`
}

// Config is the environment snapshot
type Config struct {
	Port              string
	GeminiAPIKey      string
	LLMProvider       string
	LLMModel          string
	DataDir           string
	LogDir            string
	DebugMode         bool
	LogLevel          string
	AccessKeysURL     string
	AccessKeys        []string
	AccessGateEnabled bool
	AuthSecretKey     string
	NATSURL           string
	RateLimitRPM      int
	GenerationTimeout time.Duration
	EncryptionKey     string
}

// Load reads .env (optional) and the process environment
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", getEnv("API_KEY", "")),
		LLMProvider:       getEnv("LLM_PROVIDER", DefaultProvider),
		LLMModel:          getEnv("LLM_MODEL", DefaultModel),
		DataDir:           getEnvPath("DATA_DIR", "data"),
		LogDir:            getEnvPath("LOG_DIR", "logs"),
		DebugMode:         getEnvBool("DEBUG_MODE", false),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		AccessKeysURL:     getEnv("ACCESS_KEYS_URL", ""),
		AccessKeys:        getEnvList("ACCESS_KEYS"),
		AuthSecretKey:     getEnv("AUTH_SECRET_KEY", ""),
		NATSURL:           getEnv("NATS_URL", ""),
		RateLimitRPM:      getEnvInt("RATE_LIMIT_RPM", 30),
		GenerationTimeout: getEnvDuration("GENERATION_TIMEOUT", DefaultGenerationTimeout),
		EncryptionKey:     getEnv("CONFIG_ENCRYPTION_KEY", ""),
	}

	hasKeySource := cfg.AccessKeysURL != "" || len(cfg.AccessKeys) > 0
	cfg.AccessGateEnabled = getEnvBool("ACCESS_GATE_ENABLED", hasKeySource)

	if cfg.GeminiAPIKey == "" {
		log.Println("warning: GEMINI_API_KEY not set, configure the API key in settings before generating")
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvPath also creates the directory
func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			log.Printf("warning: failed to create directory %s: %v", path, err)
		}
	}
	return path
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blanks
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func fromEnv(base *Config) *AppConfig {
	return &AppConfig{
		Port:              base.Port,
		DataDir:           base.DataDir,
		LogDir:            base.LogDir,
		DebugMode:         base.DebugMode,
		LogLevel:          base.LogLevel,
		LLMProvider:       base.LLMProvider,
		LLMModel:          base.LLMModel,
		LLMConfig:         map[string]string{},
		APIKey:            base.GeminiAPIKey,
		AccessKeysURL:     base.AccessKeysURL,
		AccessKeys:        base.AccessKeys,
		AccessGateEnabled: base.AccessGateEnabled,
		AuthSecretKey:     base.AuthSecretKey,
		NATSURL:           base.NATSURL,
		RateLimitRPM:      base.RateLimitRPM,
		GenerationTimeout: base.GenerationTimeout,
		EncryptionKey:     base.EncryptionKey,
	}
}

// InitConfig loads the environment and merges the LLM settings saved in
// <dataDir>/config.toml, then writes the merged result back.
func InitConfig(dataDir string) error {
	configFile = filepath.Join(dataDir, configFileName)

	base, err := Load()
	if err != nil {
		return err
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	cfg := fromEnv(base)

	if data, err := os.ReadFile(configFile); err == nil {
		var saved AppConfig
		if err := toml.Unmarshal(data, &saved); err != nil {
			log.Printf("warning: ignoring unreadable %s: %v", configFile, err)
		} else {
			mergeSaved(cfg, &saved)
		}
	}

	currentConfig = cfg
	return saveLocked()
}

// mergeSaved keeps the saved LLM choice; paths and env-only settings stay from the environment
func mergeSaved(cfg, saved *AppConfig) {
	if saved.LLMProvider != "" {
		cfg.LLMProvider = saved.LLMProvider
	}
	if saved.LLMModel != "" {
		cfg.LLMModel = saved.LLMModel
	}
	if saved.LLMConfig != nil {
		cfg.LLMConfig = saved.LLMConfig
	}
	if saved.EncryptedAPIKey != "" && cfg.EncryptionKey != "" {
		key, err := utils.Decrypt(saved.EncryptedAPIKey, cfg.EncryptionKey)
		if err != nil {
			log.Printf("warning: cannot decrypt saved API key: %v", err)
		} else if key != "" {
			cfg.APIKey = key
		}
	}
}

// GetCurrentConfig returns a copy of the live configuration
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		base, _ := Load()
		return fromEnv(base)
	}
	return currentConfig.clone()
}

func (c *AppConfig) clone() *AppConfig {
	cp := *c
	cp.LLMConfig = make(map[string]string, len(c.LLMConfig))
	for k, v := range c.LLMConfig {
		cp.LLMConfig[k] = v
	}
	cp.AccessKeys = append([]string(nil), c.AccessKeys...)
	return &cp
}

// ProviderSettings is the map handed to llm.Provider.Initialize
func (c *AppConfig) ProviderSettings() map[string]string {
	settings := make(map[string]string, len(c.LLMConfig)+2)
	for k, v := range c.LLMConfig {
		settings[k] = v
	}
	settings["api_key"] = c.APIKey
	if c.LLMModel != "" {
		settings["default_model"] = c.LLMModel
	}
	return settings
}

// HasAPIKey reports whether a key is configured
func (c *AppConfig) HasAPIKey() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// UpdateLLMConfig switches provider, model and key and persists them. An empty
// apiKey keeps the current key.
func UpdateLLMConfig(provider, model, apiKey string, extra map[string]string) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	if currentConfig == nil {
		return fmt.Errorf("config not initialized")
	}

	currentConfig.LLMProvider = provider
	if model != "" {
		currentConfig.LLMModel = model
	}
	if apiKey != "" {
		currentConfig.APIKey = apiKey
	}
	cleaned := make(map[string]string, len(extra))
	for k, v := range extra {
		if k == "api_key" || k == "default_model" {
			continue
		}
		cleaned[k] = v
	}
	currentConfig.LLMConfig = cleaned

	return saveLocked()
}

// SaveConfig writes the live configuration to config.toml
func SaveConfig() error {
	configMutex.Lock()
	defer configMutex.Unlock()
	return saveLocked()
}

func saveLocked() error {
	if currentConfig == nil {
		return fmt.Errorf("no config to save")
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	out := *currentConfig
	out.EncryptedAPIKey = ""
	if out.APIKey != "" {
		if out.EncryptionKey == "" {
			log.Println("warning: CONFIG_ENCRYPTION_KEY not set, API key is kept in memory only")
		} else {
			sealed, err := utils.Encrypt(out.APIKey, out.EncryptionKey)
			if err != nil {
				return fmt.Errorf("encrypt API key: %w", err)
			}
			out.EncryptedAPIKey = sealed
		}
	}

	data, err := toml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp := configFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, configFile)
}

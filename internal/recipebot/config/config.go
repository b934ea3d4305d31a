package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	App      AppConfig      `json:"app" yaml:"app"`
	API      APIConfig      `json:"api" yaml:"api"`
	LLM      LLMConfig      `json:"llm" yaml:"llm"`
	Security SecurityConfig `json:"security" yaml:"security"`
	Memory   MemoryConfig   `json:"memory" yaml:"memory"`
	Telegram TelegramConfig `json:"telegram" yaml:"telegram"`
	Bot      BotConfig      `json:"bot" yaml:"bot"`
}

// AppConfig represents application configuration
type AppConfig struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Debug       bool   `json:"debug"`
	LogLevel    string `json:"log_level"`
	Environment string `json:"environment"`
}

// APIConfig represents HTTP API configuration
type APIConfig struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	CORSOrigins    []string `json:"cors_origins"`
	// TrustedProxies may set X-Forwarded-For; empty trusts none.
	TrustedProxies []string `json:"trusted_proxies"`
	MaxRequestSize int64    `json:"max_request_size"`
	Timeout        int      `json:"timeout"`
}

// LLMConfig represents generation backend configuration
type LLMConfig struct {
	DefaultProvider string                       `json:"default_provider"`
	Providers       map[string]LLMProviderConfig `json:"providers"`
}

// LLMProviderConfig represents a single generation backend
type LLMProviderConfig struct {
	APIKey      string  `json:"api_key"`
	APIType     string  `json:"api_type"`
	APIVersion  string  `json:"api_version"`
	Model       string  `json:"model"`
	BaseURL     string  `json:"base_url"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	JWTSecretKey       string   `json:"jwt_secret_key"`
	EnableAuth         bool     `json:"enable_auth"`
	EnableRateLimit    bool     `json:"enable_rate_limit"`
	RateLimitPerMinute int      `json:"rate_limit_per_minute"`
	Whitelist          []string `json:"whitelist"`
}

// MemoryConfig represents favorites/history storage configuration
type MemoryConfig struct {
	StoreType     string `json:"store_type"`
	RedisHost     string `json:"redis_host"`
	RedisPort     int    `json:"redis_port"`
	RedisUsername string `json:"redis_username"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`
}

// TelegramConfig represents Telegram transport configuration
type TelegramConfig struct {
	AccessToken string `json:"access_token"`
	PollTimeout int    `json:"poll_timeout"`
	Debug       bool   `json:"debug"`
}

// BotConfig represents command router behaviour
type BotConfig struct {
	BackendTimeout    int `json:"backend_timeout"`
	RecentHistorySize int `json:"recent_history_size"`
	RecentHistoryTTL  int `json:"recent_history_ttl"`
}

const (
	StoreTypeMemory = "memory"
	StoreTypeRedis  = "redis"
)

// BackendTimeoutDuration returns the per-call generation backend timeout.
func (b BotConfig) BackendTimeoutDuration() time.Duration {
	return time.Duration(b.BackendTimeout) * time.Second
}

// RecentHistoryTTLDuration returns how long a user's recent picks are kept.
func (b BotConfig) RecentHistoryTTLDuration() time.Duration {
	return time.Duration(b.RecentHistoryTTL) * time.Hour
}

// RedisURL builds a redis:// URL from the memory settings.
func (m MemoryConfig) RedisURL() string {
	switch {
	case m.RedisUsername != "" && m.RedisPassword != "":
		return fmt.Sprintf("redis://%s:%s@%s:%d/%d", m.RedisUsername, m.RedisPassword, m.RedisHost, m.RedisPort, m.RedisDB)
	case m.RedisPassword != "":
		return fmt.Sprintf("redis://:%s@%s:%d/%d", m.RedisPassword, m.RedisHost, m.RedisPort, m.RedisDB)
	default:
		return fmt.Sprintf("redis://%s:%d/%d", m.RedisHost, m.RedisPort, m.RedisDB)
	}
}

// Load loads configuration from .env, YAML files and environment variables.
// Environment variables win over YAML, YAML wins over defaults.
func Load() *Config {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	config := &Config{}

	configDir := getEnv("CONFIG_DIR", "config")
	yamlConfig := loadYAMLConfig(configDir)

	// Load app configuration
	config.App = AppConfig{
		Name:        getEnvWithYAML("APP_NAME", yamlConfig, "app.name", "Recipe Bot"),
		Version:     getEnvWithYAML("APP_VERSION", yamlConfig, "app.version", "1.0.0"),
		Debug:       getEnvBoolWithYAML("DEBUG", yamlConfig, "app.debug", false),
		LogLevel:    getEnvWithYAML("LOG_LEVEL", yamlConfig, "app.log_level", "INFO"),
		Environment: getEnvWithYAML("ENVIRONMENT", yamlConfig, "app.environment", "development"),
	}

	// Load API configuration
	config.API = APIConfig{
		Host:           getEnvWithYAML("API_HOST", yamlConfig, "api.host", "0.0.0.0"),
		Port:           getEnvIntWithYAML("API_PORT", yamlConfig, "api.port", 8000),
		CORSOrigins:    getEnvSliceWithYAML("API_CORS_ORIGINS", yamlConfig, "api.cors_origins", []string{"*"}),
		TrustedProxies: getEnvSliceWithYAML("API_TRUSTED_PROXIES", yamlConfig, "api.trusted_proxies", nil),
		MaxRequestSize: getEnvInt64WithYAML("MAX_REQUEST_SIZE", yamlConfig, "api.max_request_size", 1048576),
		Timeout:        getEnvIntWithYAML("API_TIMEOUT", yamlConfig, "api.timeout", 120),
	}

	// Load LLM configuration
	config.LLM = LLMConfig{
		DefaultProvider: getEnvWithYAML("LLM_DEFAULT_PROVIDER", yamlConfig, "llm.default_provider", "openai"),
		Providers:       loadLLMProviders(yamlConfig),
	}

	// Load Security configuration
	config.Security = SecurityConfig{
		JWTSecretKey:       getEnvWithYAML("JWT_SECRET_KEY", yamlConfig, "security.jwt_secret_key", ""),
		EnableAuth:         getEnvBoolWithYAML("ENABLE_AUTH", yamlConfig, "security.enable_auth", false),
		EnableRateLimit:    getEnvBoolWithYAML("ENABLE_RATE_LIMIT", yamlConfig, "security.enable_rate_limit", false),
		RateLimitPerMinute: getEnvIntWithYAML("RATE_LIMIT_PER_MINUTE", yamlConfig, "security.rate_limit_per_minute", 30),
		Whitelist:          getEnvSliceWithYAML("API_WHITELIST", yamlConfig, "security.whitelist", []string{"/health", "/ping"}),
	}

	// Load Memory configuration
	config.Memory = MemoryConfig{
		StoreType:     getEnvWithYAML("MEMORY_STORE_TYPE", yamlConfig, "memory.store_type", StoreTypeMemory),
		RedisHost:     getEnvWithYAML("REDIS_HOST", yamlConfig, "memory.redis_host", "localhost"),
		RedisPort:     getEnvIntWithYAML("REDIS_PORT", yamlConfig, "memory.redis_port", 6379),
		RedisUsername: getEnvWithYAML("REDIS_USERNAME", yamlConfig, "memory.redis_username", ""),
		RedisPassword: getEnvWithYAML("REDIS_PASSWORD", yamlConfig, "memory.redis_password", ""),
		RedisDB:       getEnvIntWithYAML("REDIS_DB", yamlConfig, "memory.redis_db", 0),
	}

	// Load Telegram configuration
	config.Telegram = TelegramConfig{
		AccessToken: getEnvWithYAML("TELEGRAM_ACCESS_TOKEN", yamlConfig, "telegram.access_token", ""),
		PollTimeout: getEnvIntWithYAML("TELEGRAM_POLL_TIMEOUT", yamlConfig, "telegram.poll_timeout", 60),
		Debug:       getEnvBoolWithYAML("TELEGRAM_DEBUG", yamlConfig, "telegram.debug", false),
	}

	// Load Bot configuration
	config.Bot = BotConfig{
		BackendTimeout:    getEnvIntWithYAML("BOT_BACKEND_TIMEOUT", yamlConfig, "bot.backend_timeout", 60),
		RecentHistorySize: getEnvIntWithYAML("BOT_RECENT_HISTORY_SIZE", yamlConfig, "bot.recent_history_size", 5),
		RecentHistoryTTL:  getEnvIntWithYAML("BOT_RECENT_HISTORY_TTL", yamlConfig, "bot.recent_history_ttl", 24),
	}

	return config
}

// Validate reports configuration that cannot be started with.
func (c *Config) Validate() error {
	switch c.Memory.StoreType {
	case StoreTypeMemory, StoreTypeRedis:
	default:
		return fmt.Errorf("unknown memory.store_type %q (want %q or %q)", c.Memory.StoreType, StoreTypeMemory, StoreTypeRedis)
	}

	if _, ok := c.LLM.Providers[c.LLM.DefaultProvider]; !ok {
		return fmt.Errorf("llm provider %q is not configured", c.LLM.DefaultProvider)
	}

	if c.Bot.BackendTimeout <= 0 {
		return fmt.Errorf("bot.backend_timeout must be positive, got %d", c.Bot.BackendTimeout)
	}
	if c.Bot.RecentHistorySize < 0 {
		return fmt.Errorf("bot.recent_history_size must not be negative, got %d", c.Bot.RecentHistorySize)
	}

	if c.Security.EnableAuth && c.Security.JWTSecretKey == "" {
		return fmt.Errorf("security.enable_auth requires security.jwt_secret_key")
	}
	return nil
}

// loadLLMProviders loads generation backend configurations. A provider is
// registered when it has an API key; "mock" is always available.
func loadLLMProviders(yamlConfig map[string]interface{}) map[string]LLMProviderConfig {
	providers := make(map[string]LLMProviderConfig)

	// OpenAI and OpenAI-compatible (Azure style) endpoints
	if apiKey := getEnvWithYAML("OPENAI_API_KEY", yamlConfig, "llm.providers.openai.api_key", ""); apiKey != "" {
		providers["openai"] = LLMProviderConfig{
			APIKey:      apiKey,
			APIType:     getEnvWithYAML("OPENAI_API_TYPE", yamlConfig, "llm.providers.openai.api_type", "openai"),
			APIVersion:  getEnvWithYAML("OPENAI_API_VERSION", yamlConfig, "llm.providers.openai.api_version", ""),
			Model:       getEnvWithYAML("OPENAI_MODEL", yamlConfig, "llm.providers.openai.model", "gpt-4o-mini"),
			BaseURL:     getEnvWithYAML("OPENAI_BASE_URL", yamlConfig, "llm.providers.openai.base_url", "https://api.openai.com/v1"),
			Temperature: getEnvFloat64WithYAML("OPENAI_TEMPERATURE", yamlConfig, "llm.providers.openai.temperature", 0.7),
			MaxTokens:   getEnvIntWithYAML("OPENAI_MAX_TOKENS", yamlConfig, "llm.providers.openai.max_tokens", 1024),
		}
	}

	// Gemini provider
	if apiKey := getEnvWithYAML("GEMINI_API_KEY", yamlConfig, "llm.providers.gemini.api_key", ""); apiKey != "" {
		providers["gemini"] = LLMProviderConfig{
			APIKey:      apiKey,
			Model:       getEnvWithYAML("GEMINI_MODEL", yamlConfig, "llm.providers.gemini.model", "gemini-2.0-flash"),
			Temperature: getEnvFloat64WithYAML("GEMINI_TEMPERATURE", yamlConfig, "llm.providers.gemini.temperature", 0.7),
			MaxTokens:   getEnvIntWithYAML("GEMINI_MAX_TOKENS", yamlConfig, "llm.providers.gemini.max_tokens", 1024),
		}
	}

	providers["mock"] = LLMProviderConfig{Model: "mock"}

	return providers
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// loadYAMLConfig loads configuration from YAML files
func loadYAMLConfig(configDir string) map[string]interface{} {
	yamlConfig := make(map[string]interface{})

	// Try to load app_config.yaml
	appConfigPath := filepath.Join(configDir, "app_config.yaml")
	if data, err := os.ReadFile(appConfigPath); err == nil {
		var config map[string]interface{}
		if err := yaml.Unmarshal(data, &config); err == nil && config != nil {
			yamlConfig = config
		}
	}

	// Try to load llm_config.yaml
	llmConfigPath := filepath.Join(configDir, "llm_config.yaml")
	if data, err := os.ReadFile(llmConfigPath); err == nil {
		var llmConfig map[string]interface{}
		if err := yaml.Unmarshal(data, &llmConfig); err == nil && llmConfig != nil {
			yamlConfig["llm"] = llmConfig
		}
	}

	return yamlConfig
}

// getEnvWithYAML gets environment variable with YAML fallback
func getEnvWithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}

	if yamlValue := getYAMLValue(yamlConfig, yamlPath); yamlValue != "" {
		return yamlValue
	}

	return defaultValue
}

// getEnvIntWithYAML gets integer environment variable with YAML fallback
func getEnvIntWithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue int) int {
	if value := os.Getenv(envKey); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}

	if yamlValue := getYAMLValue(yamlConfig, yamlPath); yamlValue != "" {
		if intValue, err := strconv.Atoi(yamlValue); err == nil {
			return intValue
		}
	}

	return defaultValue
}

// getEnvInt64WithYAML gets int64 environment variable with YAML fallback
func getEnvInt64WithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue int64) int64 {
	if value := os.Getenv(envKey); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}

	if yamlValue := getYAMLValue(yamlConfig, yamlPath); yamlValue != "" {
		if intValue, err := strconv.ParseInt(yamlValue, 10, 64); err == nil {
			return intValue
		}
	}

	return defaultValue
}

// getEnvFloat64WithYAML gets float64 environment variable with YAML fallback
func getEnvFloat64WithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue float64) float64 {
	if value := os.Getenv(envKey); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}

	if yamlValue := getYAMLValue(yamlConfig, yamlPath); yamlValue != "" {
		if floatValue, err := strconv.ParseFloat(yamlValue, 64); err == nil {
			return floatValue
		}
	}

	return defaultValue
}

// getEnvBoolWithYAML gets boolean environment variable with YAML fallback
func getEnvBoolWithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue bool) bool {
	if value := os.Getenv(envKey); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}

	if yamlValue := getYAMLValue(yamlConfig, yamlPath); yamlValue != "" {
		if boolValue, err := strconv.ParseBool(yamlValue); err == nil {
			return boolValue
		}
	}

	return defaultValue
}

// getEnvSliceWithYAML gets string slice environment variable with YAML fallback
func getEnvSliceWithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue []string) []string {
	if value := os.Getenv(envKey); value != "" {
		// Split by comma for environment variable
		parts := strings.Split(value, ",")
		result := make([]string, len(parts))
		for i, part := range parts {
			result[i] = strings.TrimSpace(part)
		}
		return result
	}

	if yamlValue := getYAMLSlice(yamlConfig, yamlPath); yamlValue != nil {
		return yamlValue
	}

	return defaultValue
}

// lookupYAML walks a dot notation path through nested YAML maps
func lookupYAML(config map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	current := config

	for i, part := range parts {
		value, ok := current[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return value, true
		}
		next, ok := value.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = next
	}

	return nil, false
}

// getYAMLValue gets a scalar from YAML config using dot notation path.
// Numbers and booleans are rendered as strings so every typed helper can parse them.
func getYAMLValue(config map[string]interface{}, path string) string {
	value, ok := lookupYAML(config, path)
	if !ok || value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case int, int64, float64, bool:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

// getYAMLSlice gets string slice from YAML config using dot notation path
func getYAMLSlice(config map[string]interface{}, path string) []string {
	value, ok := lookupYAML(config, path)
	if !ok {
		return nil
	}

	slice, ok := value.([]interface{})
	if !ok {
		return nil
	}

	result := make([]string, 0, len(slice))
	for _, item := range slice {
		if str, ok := item.(string); ok {
			result = append(result, str)
		}
	}
	return result
}

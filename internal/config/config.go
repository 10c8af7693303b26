package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultConfigPath = "config.json"
	ConfigPathEnv     = "DEEPCHAT_CONFIG"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Model       ModelConfig               `json:"model"`
	Redis       RedisConfig               `json:"redis"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Log         LogConfig                 `json:"log"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address"`
	// Store selects the session/file backend: memory, redis, sqlite3 or mysql.
	Store          string `json:"store"`
	MaxFileChars   int    `json:"max_file_chars"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`
}

type ModelConfig struct {
	Provider   string `json:"provider"`
	BaseURL    string `json:"base_url"`
	Model      string `json:"model"`
	APIKey     string `json:"api_key"`
	MaxRetries *int   `json:"max_retries"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Pretty bool   `json:"pretty"`
}

// providerDefaults holds endpoint, model and credential variable per provider.
var providerDefaults = map[string]struct {
	baseURL, model, keyEnv, baseEnv string
}{
	"deepseek": {"https://api.deepseek.com", "deepseek-chat", "DEEPSEEK_API_KEY", "DEEPSEEK_API_BASE"},
	"openai":   {"", "gpt-4o-mini", "OPENAI_API_KEY", "OPENAI_BASE_URL"},
	"claude":   {"", "claude-3-5-haiku-latest", "ANTHROPIC_API_KEY", "ANTHROPIC_BASE_URL"},
	"gemini":   {"", "gemini-2.0-flash", "GEMINI_API_KEY", ""},
}

const DefaultMaxRetries = 2

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the provided path (defaults to config.json). A missing
// default file is not an error. Credentials from the environment override the file; a .env
// file in the working directory is loaded first.
func Load(path string) (*Config, error) {
	if err := godotenv.Overload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	cfg := &Config{}
	file, err := os.Open(absPath)
	switch {
	case err == nil:
		defer file.Close()
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BasicConfig.ServerAddress == "" {
		c.BasicConfig.ServerAddress = ":8000"
	}
	if c.BasicConfig.Store == "" {
		c.BasicConfig.Store = "memory"
	}
	c.BasicConfig.Store = strings.ToLower(c.BasicConfig.Store)
	if c.BasicConfig.MaxFileChars <= 0 {
		c.BasicConfig.MaxFileChars = 10000
	}
	if c.BasicConfig.MaxUploadBytes <= 0 {
		c.BasicConfig.MaxUploadBytes = 32 << 20
	}
	if c.Model.Provider == "" {
		c.Model.Provider = "deepseek"
	}
	c.Model.Provider = strings.ToLower(c.Model.Provider)
	if d, ok := providerDefaults[c.Model.Provider]; ok {
		if c.Model.BaseURL == "" {
			c.Model.BaseURL = d.baseURL
		}
		if c.Model.Model == "" {
			c.Model.Model = d.model
		}
	}
	if c.Model.MaxRetries == nil {
		n := DefaultMaxRetries
		c.Model.MaxRetries = &n
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "deepchat"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) applyEnv() {
	d, ok := providerDefaults[c.Model.Provider]
	if !ok {
		return
	}
	if v := os.Getenv(d.keyEnv); v != "" {
		c.Model.APIKey = v
	}
	if d.baseEnv != "" {
		if v := os.Getenv(d.baseEnv); v != "" {
			c.Model.BaseURL = v
		}
	}
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if _, ok := providerDefaults[c.Model.Provider]; !ok {
		return fmt.Errorf("unsupported model provider: %s", c.Model.Provider)
	}
	if *c.Model.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	switch c.BasicConfig.Store {
	case "memory", "redis":
	case "sqlite", "sqlite3", "mysql":
		if _, ok := c.Databases[c.BasicConfig.Store]; !ok && c.BasicConfig.Store == "mysql" {
			return fmt.Errorf("database config for %s not found", c.BasicConfig.Store)
		}
	default:
		return fmt.Errorf("unsupported store: %s", c.BasicConfig.Store)
	}
	return nil
}

// CredentialEnv names the environment variable holding the provider's API key.
func CredentialEnv(provider string) string {
	return providerDefaults[strings.ToLower(provider)].keyEnv
}

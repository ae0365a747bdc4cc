package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	ConfigDirName     = ".termbuddy"
	ConfigFileName    = "config.json"
	HistoryFileName   = "history.json"
	HistoryDBFileName = "history.db"
	CommandsDirName   = "commands"

	// EnvPrefix is the prefix for environment overrides, e.g. TERMBUDDY_API_KEY
	EnvPrefix = "TERMBUDDY"
)

// ErrNotFound is returned by Load when the configuration file does not exist
var ErrNotFound = errors.New("config not found")

// Provider identifies the language model backend
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
	ProviderGrok      Provider = "grok"
	ProviderOllama    Provider = "ollama"
)

// Providers lists the supported backends in the order the setup wizard offers them
var Providers = []Provider{
	ProviderOpenAI,
	ProviderAnthropic,
	ProviderGoogle,
	ProviderGrok,
	ProviderOllama,
}

// HistoryBackend selects where past requests are recorded
type HistoryBackend string

const (
	HistoryJSON   HistoryBackend = "json"
	HistorySQLite HistoryBackend = "sqlite"
)

// HistoryConfig holds optional history settings
type HistoryConfig struct {
	Backend HistoryBackend `json:"backend,omitempty" mapstructure:"backend"`
}

// Config represents the application configuration
type Config struct {
	Provider Provider       `json:"provider" mapstructure:"provider"`
	Model    string         `json:"model" mapstructure:"model"`
	APIKey   string         `json:"apiKey" mapstructure:"apikey"`
	History  *HistoryConfig `json:"history,omitempty" mapstructure:"history"`
}

// HistoryBackend returns the configured history backend, defaulting to JSON
func (c *Config) HistoryBackend() HistoryBackend {
	if c.History == nil || c.History.Backend == "" {
		return HistoryJSON
	}
	return c.History.Backend
}

// Validate checks the fields every invocation needs
func (c *Config) Validate() error {
	if strings.TrimSpace(string(c.Provider)) == "" {
		return fmt.Errorf("config has no provider set")
	}
	return nil
}

// Paths holds every per-user location the program reads or writes.
// It is resolved once at startup and handed to the components that need it.
type Paths struct {
	Dir       string
	Config    string
	History   string
	HistoryDB string
	Commands  string
}

// PathsIn returns the file layout rooted at dir
func PathsIn(dir string) Paths {
	return Paths{
		Dir:       dir,
		Config:    filepath.Join(dir, ConfigFileName),
		History:   filepath.Join(dir, HistoryFileName),
		HistoryDB: filepath.Join(dir, HistoryDBFileName),
		Commands:  filepath.Join(dir, CommandsDirName),
	}
}

// DefaultPaths returns the layout under the user's home directory
func DefaultPaths() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("failed to get home directory: %w", err)
	}
	return PathsIn(filepath.Join(home, ConfigDirName)), nil
}

// Load reads the configuration file at path. Environment variables
// TERMBUDDY_PROVIDER, TERMBUDDY_MODEL and TERMBUDDY_API_KEY override the file.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w at %s", ErrNotFound, path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	for key, env := range map[string]string{
		"provider": EnvPrefix + "_PROVIDER",
		"model":    EnvPrefix + "_MODEL",
		"apikey":   EnvPrefix + "_API_KEY",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := Config{
		Provider: Provider(strings.TrimSpace(v.GetString("provider"))),
		Model:    strings.TrimSpace(v.GetString("model")),
		APIKey:   strings.TrimSpace(v.GetString("apikey")),
	}
	if backend := v.GetString("history.backend"); backend != "" {
		cfg.History = &HistoryConfig{Backend: HistoryBackend(backend)}
	}

	return &cfg, nil
}

// Save writes the configuration to path, readable only by the owner
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	// WriteFile keeps the mode of an existing file
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to restrict config permissions: %w", err)
	}

	return nil
}

// Exists checks if a configuration file exists
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

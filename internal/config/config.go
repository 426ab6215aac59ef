// Package config handles configuration loading and management for jobhunt.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for jobhunt.
type Config struct {
	Anthropic     AnthropicConfig     `mapstructure:"anthropic"`
	Bedrock       BedrockConfig       `mapstructure:"bedrock"`
	Serper        SerperConfig        `mapstructure:"serper"`
	Orchestration OrchestrationConfig `mapstructure:"orchestration"`
	Checkpoint    CheckpointConfig    `mapstructure:"checkpoint"`
	Search        SearchConfig        `mapstructure:"search"`
	State         StateConfig         `mapstructure:"state"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Log           LogConfig           `mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

// BedrockConfig routes worker calls through AWS Bedrock.
type BedrockConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
}

// SerperConfig holds job search API settings.
type SerperConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Country string        `mapstructure:"country"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// OrchestrationConfig bounds worker execution.
type OrchestrationConfig struct {
	// TaskTimeout limits each task; zero waits indefinitely.
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
	// MaxIterations limits API calls per worker invocation.
	MaxIterations int `mapstructure:"max_iterations"`
	// MaxDelegationDepth limits nested delegation; zero disables it.
	MaxDelegationDepth int `mapstructure:"max_delegation_depth"`
}

// CheckpointConfig holds defaults for the human checkpoints.
type CheckpointConfig struct {
	DefaultLocation   string        `mapstructure:"default_location"`
	DefaultExperience string        `mapstructure:"default_experience"`
	MaxListings       int           `mapstructure:"max_listings"`
	Timeout           time.Duration `mapstructure:"timeout"`
	// Interactive selects "auto", "form" or "console".
	Interactive string `mapstructure:"interactive"`
}

// SearchConfig holds defaults for a run's initial parameters.
type SearchConfig struct {
	Resume  string   `mapstructure:"resume"`
	Roles   []string `mapstructure:"roles"`
	Domains []string `mapstructure:"domains"`
}

// StateConfig locates the run history database.
type StateConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// MetricsConfig controls metrics export.
type MetricsConfig struct {
	// Textfile, when set, receives metrics in Prometheus text format on exit.
	Textfile string `mapstructure:"textfile"`
}

// LogConfig controls the debug log.
type LogConfig struct {
	File string `mapstructure:"file"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, SERPER_API_KEY)
// 2. Project config (.jobhunt.yaml in current directory or parent)
// 3. User config (~/.config/jobhunt/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	bindEnv(v)

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("serper.api_key", "SERPER_API_KEY")
	_ = v.BindEnv("bedrock.region", "AWS_REGION")
	_ = v.BindEnv("bedrock.profile", "AWS_PROFILE")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Serper.APIKey = expandEnv(cfg.Serper.APIKey)
	cfg.State.DBPath = expandHome(cfg.State.DBPath)
	cfg.Search.Resume = expandHome(cfg.Search.Resume)

	return cfg, nil
}

// Save writes the given settings to the user config file, keeping any
// other keys already stored there.
func Save(settings map[string]any) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)
	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading %s: %w", configPath, err)
		}
	}

	for key, value := range settings {
		v.Set(key, value)
	}

	return v.WriteConfigAs(configPath)
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// Keys lists every supported configuration key.
func Keys() []string {
	return []string{
		"anthropic.api_key", "anthropic.model", "anthropic.max_tokens",
		"bedrock.enabled", "bedrock.region", "bedrock.profile",
		"serper.api_key", "serper.base_url", "serper.country", "serper.timeout",
		"orchestration.task_timeout", "orchestration.max_iterations", "orchestration.max_delegation_depth",
		"checkpoint.default_location", "checkpoint.default_experience", "checkpoint.max_listings",
		"checkpoint.timeout", "checkpoint.interactive",
		"search.resume", "search.roles", "search.domains",
		"state.db_path",
		"metrics.textfile",
		"log.file",
	}
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 8192)

	v.SetDefault("bedrock.enabled", false)
	v.SetDefault("bedrock.region", "")
	v.SetDefault("bedrock.profile", "")

	v.SetDefault("serper.api_key", "")
	v.SetDefault("serper.base_url", "https://google.serper.dev/jobs")
	v.SetDefault("serper.country", "in")
	v.SetDefault("serper.timeout", "30s")

	v.SetDefault("orchestration.task_timeout", "5m")
	v.SetDefault("orchestration.max_iterations", 25)
	v.SetDefault("orchestration.max_delegation_depth", 2)

	v.SetDefault("checkpoint.default_location", "Remote")
	v.SetDefault("checkpoint.default_experience", "junior")
	v.SetDefault("checkpoint.max_listings", 5)
	v.SetDefault("checkpoint.timeout", "0s")
	v.SetDefault("checkpoint.interactive", "auto")

	v.SetDefault("search.resume", "")
	v.SetDefault("search.roles", []string{"ML Engineer", "Data Scientist"})
	v.SetDefault("search.domains", []string{"AI", "FinTech"})

	v.SetDefault("state.db_path", filepath.Join(getUserDataDir(), "history.db"))
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("log.file", filepath.Join(getUserDataDir(), "logs", "jobhunt-debug.log"))
}

// getUserConfigDir returns the XDG config directory for jobhunt.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "jobhunt")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "jobhunt")
	}
	return filepath.Join(home, ".config", "jobhunt")
}

// getUserDataDir returns the XDG data directory for jobhunt.
func getUserDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "jobhunt")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".local", "share", "jobhunt")
	}
	return filepath.Join(home, ".local", "share", "jobhunt")
}

// findProjectConfig searches for .jobhunt.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".jobhunt.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path == "~" || (len(path) > 1 && path[:2] == "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 8192,
		},
		Serper: SerperConfig{
			BaseURL: "https://google.serper.dev/jobs",
			Country: "in",
			Timeout: 30 * time.Second,
		},
		Orchestration: OrchestrationConfig{
			TaskTimeout:        5 * time.Minute,
			MaxIterations:      25,
			MaxDelegationDepth: 2,
		},
		Checkpoint: CheckpointConfig{
			DefaultLocation:   "Remote",
			DefaultExperience: "junior",
			MaxListings:       5,
			Interactive:       "auto",
		},
		Search: SearchConfig{
			Roles:   []string{"ML Engineer", "Data Scientist"},
			Domains: []string{"AI", "FinTech"},
		},
		State: StateConfig{
			DBPath: filepath.Join(getUserDataDir(), "history.db"),
		},
		Log: LogConfig{
			File: filepath.Join(getUserDataDir(), "logs", "jobhunt-debug.log"),
		},
	}
}

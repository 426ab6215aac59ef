package config

import (
	"errors"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when no API key is configured.
var ErrNoAPIKey = errors.New("no Anthropic API key configured")

// ErrNoSerperKey is returned when no job search key is configured.
var ErrNoSerperKey = errors.New("no Serper API key configured (set SERPER_API_KEY)")

// GetAPIKey returns the Anthropic API key from the configuration.
// It checks in order: environment variable, config file.
func GetAPIKey(cfg *Config) (string, error) {
	var configured string
	if cfg != nil {
		configured = cfg.Anthropic.APIKey
	}
	if key := lookupKey("ANTHROPIC_API_KEY", configured); key != "" {
		return key, nil
	}
	return "", ErrNoAPIKey
}

// GetSerperKey returns the job search API key, environment first.
func GetSerperKey(cfg *Config) (string, error) {
	var configured string
	if cfg != nil {
		configured = cfg.Serper.APIKey
	}
	if key := lookupKey("SERPER_API_KEY", configured); key != "" {
		return key, nil
	}
	return "", ErrNoSerperKey
}

func lookupKey(envVar, configured string) string {
	if key := os.Getenv(envVar); key != "" {
		return key
	}
	return expandConfigured(configured)
}

// expandConfigured resolves ${VAR} references in a configured key,
// returning "" when they stay unresolved.
func expandConfigured(configured string) string {
	if configured == "" {
		return ""
	}
	key := os.ExpandEnv(configured)
	if key == "" || strings.HasPrefix(key, "${") {
		return ""
	}
	return key
}

// ValidateAPIKey performs basic validation on an API key.
// It checks format but does not verify the key with Anthropic's API.
func ValidateAPIKey(key string) error {
	if key == "" {
		return ErrNoAPIKey
	}

	// Anthropic API keys start with "sk-ant-"
	if !strings.HasPrefix(key, "sk-ant-") {
		return errors.New("invalid API key format: expected 'sk-ant-' prefix")
	}

	// Keys should be reasonably long
	if len(key) < 20 {
		return errors.New("invalid API key format: key too short")
	}

	return nil
}

// MaskAPIKey returns a masked version of the API key for display.
// Shows the first 7 characters (sk-ant-) and last 4 characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}

	if len(key) <= 15 {
		return "***"
	}

	return key[:7] + "..." + key[len(key)-4:]
}

// KeySource represents where an API key was loaded from.
type KeySource string

const (
	KeySourceEnv    KeySource = "environment"
	KeySourceConfig KeySource = "config_file"
	KeySourceNone   KeySource = "none"
)

// GetAPIKeySource returns where the Anthropic API key was sourced from.
func GetAPIKeySource(cfg *Config) KeySource {
	var configured string
	if cfg != nil {
		configured = cfg.Anthropic.APIKey
	}
	return keySource("ANTHROPIC_API_KEY", configured)
}

// GetSerperKeySource returns where the job search key was sourced from.
func GetSerperKeySource(cfg *Config) KeySource {
	var configured string
	if cfg != nil {
		configured = cfg.Serper.APIKey
	}
	return keySource("SERPER_API_KEY", configured)
}

func keySource(envVar, configured string) KeySource {
	if os.Getenv(envVar) != "" {
		return KeySourceEnv
	}
	if expandConfigured(configured) != "" {
		return KeySourceConfig
	}
	return KeySourceNone
}

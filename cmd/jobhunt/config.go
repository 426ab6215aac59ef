package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/jobhunt/internal/config"
	"github.com/ShayCichocki/jobhunt/pkg/models"
)

var configShowPath bool

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify jobhunt configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/jobhunt/config.yaml
Project-specific overrides can be placed in .jobhunt.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if configShowPath {
			fmt.Fprintf(out, "user: %s\n", config.GetUserConfigPath())
			if p := config.GetProjectConfigPath(); p != "" {
				fmt.Fprintf(out, "project: %s\n", p)
			}
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		switch len(args) {
		case 0:
			displayAllConfig(out, cfg)
			return nil
		case 1:
			value, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, value)
			return nil
		default:
			key := strings.ToLower(args[0])
			value, err := parseConfigValue(key, args[1])
			if err != nil {
				return err
			}
			if err := config.Save(map[string]any{key: value}); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintf(out, "Set %s = %s\n", key, args[1])
			return nil
		}
	},
}

func init() {
	configCmd.Flags().BoolVar(&configShowPath, "path", false, "Print the config file locations")
}

// displayAllConfig prints all configuration values.
func displayAllConfig(w io.Writer, cfg *config.Config) {
	for _, key := range config.Keys() {
		value, _ := getConfigValue(cfg, key)
		fmt.Fprintf(w, "%s: %s\n", key, value)
	}
	fmt.Fprintf(w, "\n(anthropic key from %s, serper key from %s)\n",
		config.GetAPIKeySource(cfg), config.GetSerperKeySource(cfg))
}

// getConfigValue retrieves a configuration value by dot-notation key.
// API keys are masked.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		k, _ := config.GetAPIKey(cfg)
		return config.MaskAPIKey(k), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.max_tokens":
		return strconv.FormatInt(cfg.Anthropic.MaxTokens, 10), nil
	case "bedrock.enabled":
		return strconv.FormatBool(cfg.Bedrock.Enabled), nil
	case "bedrock.region":
		return cfg.Bedrock.Region, nil
	case "bedrock.profile":
		return cfg.Bedrock.Profile, nil
	case "serper.api_key":
		k, _ := config.GetSerperKey(cfg)
		return config.MaskAPIKey(k), nil
	case "serper.base_url":
		return cfg.Serper.BaseURL, nil
	case "serper.country":
		return cfg.Serper.Country, nil
	case "serper.timeout":
		return cfg.Serper.Timeout.String(), nil
	case "orchestration.task_timeout":
		return cfg.Orchestration.TaskTimeout.String(), nil
	case "orchestration.max_iterations":
		return strconv.Itoa(cfg.Orchestration.MaxIterations), nil
	case "orchestration.max_delegation_depth":
		return strconv.Itoa(cfg.Orchestration.MaxDelegationDepth), nil
	case "checkpoint.default_location":
		return cfg.Checkpoint.DefaultLocation, nil
	case "checkpoint.default_experience":
		return cfg.Checkpoint.DefaultExperience, nil
	case "checkpoint.max_listings":
		return strconv.Itoa(cfg.Checkpoint.MaxListings), nil
	case "checkpoint.timeout":
		return cfg.Checkpoint.Timeout.String(), nil
	case "checkpoint.interactive":
		return cfg.Checkpoint.Interactive, nil
	case "search.resume":
		return cfg.Search.Resume, nil
	case "search.roles":
		return strings.Join(cfg.Search.Roles, ","), nil
	case "search.domains":
		return strings.Join(cfg.Search.Domains, ","), nil
	case "state.db_path":
		return cfg.State.DBPath, nil
	case "metrics.textfile":
		return cfg.Metrics.Textfile, nil
	case "log.file":
		return cfg.Log.File, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// parseConfigValue converts a command line value to the type stored for key.
func parseConfigValue(key, value string) (any, error) {
	switch key {
	case "serper.timeout", "orchestration.task_timeout", "checkpoint.timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return nil, fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		return value, nil
	case "anthropic.max_tokens", "orchestration.max_iterations",
		"orchestration.max_delegation_depth", "checkpoint.max_listings":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", key, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("%s must not be negative", key)
		}
		return n, nil
	case "bedrock.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean for %s: %w", key, err)
		}
		return b, nil
	case "search.roles", "search.domains":
		var items []string
		for _, s := range strings.Split(value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		return items, nil
	case "checkpoint.default_experience":
		if _, ok := models.ParseExperienceLevel(value); !ok {
			return nil, fmt.Errorf("%s must be one of: %s", key, strings.Join(models.ExperienceLevels(), ", "))
		}
		return value, nil
	case "checkpoint.interactive":
		switch value {
		case "auto", "form", "console":
			return value, nil
		}
		return nil, fmt.Errorf("%s must be auto, form or console", key)
	}

	for _, k := range config.Keys() {
		if k == key {
			return value, nil
		}
	}
	return nil, fmt.Errorf("unknown configuration key: %s", key)
}

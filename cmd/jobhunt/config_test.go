package main

import (
	"strings"
	"testing"

	"github.com/ShayCichocki/jobhunt/internal/config"
)

func TestGetConfigValueCoversEveryKey(t *testing.T) {
	cfg := config.Default()
	for _, key := range config.Keys() {
		if _, err := getConfigValue(cfg, key); err != nil {
			t.Errorf("getConfigValue(%s): %v", key, err)
		}
	}
	if _, err := getConfigValue(cfg, "nope.key"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestGetConfigValueMasksKeys(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg := config.Default()
	cfg.Anthropic.APIKey = "sk-ant-REDACTED"

	got, err := getConfigValue(cfg, "anthropic.api_key")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "abcdefghij") {
		t.Errorf("key not masked: %s", got)
	}
}

func TestParseConfigValue(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		want    any
		wantErr bool
	}{
		{"checkpoint.max_listings", "3", 3, false},
		{"checkpoint.max_listings", "three", nil, true},
		{"orchestration.max_iterations", "-1", nil, true},
		{"serper.timeout", "10s", "10s", false},
		{"serper.timeout", "ten", nil, true},
		{"bedrock.enabled", "true", true, false},
		{"checkpoint.default_experience", "senior", "senior", false},
		{"checkpoint.default_experience", "wizard", nil, true},
		{"checkpoint.interactive", "form", "form", false},
		{"checkpoint.interactive", "gui", nil, true},
		{"anthropic.model", "claude-opus", "claude-opus", false},
		{"unknown.key", "x", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			got, err := parseConfigValue(tt.key, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestParseConfigValueLists(t *testing.T) {
	got, err := parseConfigValue("search.roles", "ML Engineer, Data Scientist,,")
	if err != nil {
		t.Fatal(err)
	}
	roles, ok := got.([]string)
	if !ok || len(roles) != 2 || roles[1] != "Data Scientist" {
		t.Errorf("got %#v", got)
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatNumber(1234567); got != "1,234,567" {
		t.Errorf("formatNumber = %s", got)
	}
	if got := formatNumber(123456); got != "123,456" {
		t.Errorf("formatNumber = %s", got)
	}
	if got := formatNumber(42); got != "42" {
		t.Errorf("formatNumber = %s", got)
	}
}

package version

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	v := Get()
	if v == "" {
		t.Fatal("version is empty")
	}
	if strings.TrimSpace(v) != v {
		t.Errorf("version %q carries whitespace", v)
	}
}

func TestLongStartsWithVersion(t *testing.T) {
	if !strings.HasPrefix(Long(), Get()) {
		t.Errorf("Long() = %q, want prefix %q", Long(), Get())
	}
}

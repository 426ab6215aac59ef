package orchestrator

import (
	"errors"
	"strings"
	"testing"

	"github.com/ShayCichocki/jobhunt/pkg/models"
)

func TestWorkerRegistry(t *testing.T) {
	reg := NewWorkerRegistry()

	w := models.Worker{Role: "Resume Parser", Goal: "extract", Capabilities: []string{"read_resume"}}
	if err := reg.Register(w); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(w); err == nil {
		t.Error("expected duplicate role error")
	}
	if err := reg.Register(models.Worker{Goal: "no role"}); err == nil {
		t.Error("expected error for empty role")
	}
	if err := reg.Register(models.Worker{Role: "Career Fit Analyst", Goal: "assess"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if got := strings.Join(reg.Roles(), ","); got != "Career Fit Analyst,Resume Parser" {
		t.Errorf("Roles() = %s", got)
	}
	if reg.Count() != 2 {
		t.Errorf("Count() = %d", reg.Count())
	}

	_, err := reg.Lookup("Nobody")
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "worker" || nf.Name != "Nobody" {
		t.Fatalf("expected worker NotFoundError, got %v", err)
	}
}

func TestWorkerRegistryIsolatesCopies(t *testing.T) {
	reg := NewWorkerRegistry()
	caps := []string{"read_resume"}
	if err := reg.Register(models.Worker{Role: "R", Goal: "g", Capabilities: caps}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	caps[0] = "mutated"

	got, err := reg.Lookup("R")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.Capabilities[0] != "read_resume" {
		t.Error("registry kept a reference to the caller's slice")
	}

	got.Capabilities[0] = "mutated"
	again, _ := reg.Lookup("R")
	if again.Capabilities[0] != "read_resume" {
		t.Error("Lookup returned a shared slice")
	}
}

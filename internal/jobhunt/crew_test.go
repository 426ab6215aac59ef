package jobhunt

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ShayCichocki/jobhunt/internal/graph"
	"github.com/ShayCichocki/jobhunt/internal/schema"
)

func TestDefaultCrewAssembles(t *testing.T) {
	c, err := DefaultCrew()
	if err != nil {
		t.Fatalf("DefaultCrew: %v", err)
	}
	if len(c.Workers) != 4 {
		t.Errorf("expected 4 workers, got %d", len(c.Workers))
	}

	reg, err := c.Registry()
	if err != nil {
		t.Fatalf("Registry: %v", err)
	}
	phases, err := c.Assemble(reg, schema.Default())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	discovery := phases[PhaseDiscovery]
	if discovery == nil {
		t.Fatal("discovery phase missing")
	}
	order := discovery.Order()
	if len(order) != 2 || order[0] != TaskParseResume || order[1] != TaskCareerFit {
		t.Errorf("discovery order = %v", order)
	}
	for _, name := range []string{PhaseJobSearch, PhaseOptimization} {
		if phases[name] == nil {
			t.Errorf("phase %s missing", name)
		}
	}
}

func TestParseCrewErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown key",
			yaml: "workers:\n  - role: A\n    mood: cheerful\n",
			want: "parse crew",
		},
		{
			name: "no workers",
			yaml: "phases: []\n",
			want: "no workers",
		},
		{
			name: "missing phase",
			yaml: "workers:\n  - role: A\nphases:\n  - name: discovery\n    tasks:\n      - id: career_fit\n        worker: A\n",
			want: "missing phase",
		},
		{
			name: "missing result task",
			yaml: strings.Replace(string(DefaultCrewYAML()), "id: optimize_resume", "id: polish_resume", 1),
			want: "missing task optimize_resume",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCrew([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestAssembleRejectsCycle(t *testing.T) {
	data := strings.Replace(string(DefaultCrewYAML()), "id: parse_resume\n", "id: parse_resume\n        depends_on: [career_fit]\n", 1)
	c, err := ParseCrew([]byte(data))
	if err != nil {
		t.Fatalf("ParseCrew: %v", err)
	}
	reg, err := c.Registry()
	if err != nil {
		t.Fatalf("Registry: %v", err)
	}

	_, err = c.Assemble(reg, schema.Default())
	var cycleErr *graph.CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *graph.CycleError, got %v", err)
	}
}

func TestLoadCrew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crew.yaml")
	if err := os.WriteFile(path, DefaultCrewYAML(), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCrew(path); err != nil {
		t.Fatalf("LoadCrew: %v", err)
	}

	if _, err := LoadCrew(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

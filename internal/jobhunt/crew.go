package jobhunt

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/jobhunt/internal/orchestrator"
	"github.com/ShayCichocki/jobhunt/internal/schema"
	"github.com/ShayCichocki/jobhunt/pkg/models"
)

// Phase names used by the pipeline.
const (
	PhaseDiscovery    = "discovery"
	PhaseJobSearch    = "job_search"
	PhaseOptimization = "optimization"
)

// Task IDs whose results the pipeline reads.
const (
	TaskParseResume    = "parse_resume"
	TaskCareerFit      = "career_fit"
	TaskJobSearch      = "job_search"
	TaskOptimizeResume = "optimize_resume"
)

//go:embed crew.yaml
var defaultCrew []byte

// Crew declares the workers and the tasks of each phase.
type Crew struct {
	Workers []models.Worker `yaml:"workers"`
	Phases  []PhaseSpec     `yaml:"phases"`
}

// PhaseSpec is a named group of tasks run together.
type PhaseSpec struct {
	Name  string            `yaml:"name"`
	Tasks []models.TaskSpec `yaml:"tasks"`
}

// DefaultCrew returns the built-in crew.
func DefaultCrew() (*Crew, error) {
	return ParseCrew(defaultCrew)
}

// DefaultCrewYAML returns the built-in crew definition.
func DefaultCrewYAML() []byte {
	return append([]byte(nil), defaultCrew...)
}

// LoadCrew reads a crew definition from path.
func LoadCrew(path string) (*Crew, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read crew: %w", err)
	}
	c, err := ParseCrew(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseCrew decodes a crew definition. Unknown keys are rejected and the
// pipeline's phases and result tasks must all be present.
func ParseCrew(data []byte) (*Crew, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Crew
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse crew: %w", err)
	}
	if len(c.Workers) == 0 {
		return nil, errors.New("crew declares no workers")
	}

	required := map[string]string{
		PhaseDiscovery:    TaskCareerFit,
		PhaseJobSearch:    TaskJobSearch,
		PhaseOptimization: TaskOptimizeResume,
	}
	for name, taskID := range required {
		p, ok := c.Phase(name)
		if !ok {
			return nil, fmt.Errorf("crew is missing phase %s", name)
		}
		if !p.hasTask(taskID) {
			return nil, fmt.Errorf("phase %s is missing task %s", name, taskID)
		}
	}
	return &c, nil
}

// Phase returns the phase called name.
func (c *Crew) Phase(name string) (PhaseSpec, bool) {
	for _, p := range c.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return PhaseSpec{}, false
}

func (p PhaseSpec) hasTask(id string) bool {
	for _, t := range p.Tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Registry registers every worker of the crew.
func (c *Crew) Registry() (*orchestrator.WorkerRegistry, error) {
	reg := orchestrator.NewWorkerRegistry()
	for _, w := range c.Workers {
		if err := reg.Register(w); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Assemble builds every phase against the registry and schema catalog. Any
// unknown worker, schema or dependency, and any cycle, fails here before
// a worker runs.
func (c *Crew) Assemble(reg *orchestrator.WorkerRegistry, catalog *schema.Catalog, opts ...orchestrator.PhaseOption) (map[string]*orchestrator.Phase, error) {
	phases := make(map[string]*orchestrator.Phase, len(c.Phases))
	for _, spec := range c.Phases {
		if _, dup := phases[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate phase %s", spec.Name)
		}
		p, err := orchestrator.NewPhase(spec.Name, spec.Tasks, reg, catalog, opts...)
		if err != nil {
			return nil, err
		}
		phases[spec.Name] = p
	}
	return phases, nil
}

// Package schema declares the output contracts that worker results must
// satisfy. Contracts are OpenAPI 3 schemas so they can be validated with
// kin-openapi and shown to workers verbatim.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

// Names of the built-in contracts.
const (
	ResumeProfile      = "resume_profile"
	CareerFit          = "career_fit"
	JobSearch          = "job_search"
	ResumeOptimization = "resume_optimization"
)

// Catalog maps contract names to schemas.
type Catalog struct {
	mu      sync.RWMutex
	schemas map[string]*openapi3.Schema
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{schemas: make(map[string]*openapi3.Schema)}
}

// Default returns a catalog holding the built-in contracts.
func Default() *Catalog {
	c := NewCatalog()
	c.MustRegister(ResumeProfile, resumeProfileSchema())
	c.MustRegister(CareerFit, careerFitSchema())
	c.MustRegister(JobSearch, jobSearchSchema())
	c.MustRegister(ResumeOptimization, resumeOptimizationSchema())
	return c
}

// Register adds a schema under name. Names must be unique.
func (c *Catalog) Register(name string, s *openapi3.Schema) error {
	if name == "" {
		return fmt.Errorf("schema: name is required")
	}
	if s == nil {
		return fmt.Errorf("schema: %s is nil", name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.schemas[name]; exists {
		return fmt.Errorf("schema: %s already registered", name)
	}
	c.schemas[name] = s
	return nil
}

// MustRegister panics if registration fails.
func (c *Catalog) MustRegister(name string, s *openapi3.Schema) {
	if err := c.Register(name, s); err != nil {
		panic(err)
	}
}

// Get returns the schema registered under name.
func (c *Catalog) Get(name string) (*openapi3.Schema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.schemas[name]
	return s, ok
}

// Names returns the registered contract names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.schemas))
	for n := range c.schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Describe renders a schema as indented JSON for inclusion in a prompt.
func Describe(s *openapi3.Schema) (string, error) {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}
	return string(b), nil
}

// object builds an object schema in which every property is required unless
// it is named in optional.
func object(props map[string]*openapi3.Schema, optional ...string) *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	skip := make(map[string]bool, len(optional))
	for _, name := range optional {
		skip[name] = true
	}
	required := make([]string, 0, len(props))
	for name, p := range props {
		s.WithProperty(name, p)
		if !skip[name] {
			required = append(required, name)
		}
	}
	sort.Strings(required)
	s.Required = required
	return s
}

func str() *openapi3.Schema { return openapi3.NewStringSchema() }

func stringList() *openapi3.Schema {
	return openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())
}

func arrayOf(items *openapi3.Schema) *openapi3.Schema {
	return openapi3.NewArraySchema().WithItems(items)
}

func resumeProfileSchema() *openapi3.Schema {
	level := str()
	level.Enum = []any{"intern", "junior", "mid", "senior"}
	return object(map[string]*openapi3.Schema{
		"skills":           stringList(),
		"domains":          stringList(),
		"experience_level": level,
		"projects": arrayOf(object(map[string]*openapi3.Schema{
			"title":  str(),
			"impact": str(),
			"tech":   stringList(),
		})),
		"strengths": stringList(),
	})
}

func careerFitSchema() *openapi3.Schema {
	return object(map[string]*openapi3.Schema{
		"good_fit_roles": stringList(),
		"stretch_roles":  stringList(),
		"poor_fit_roles": stringList(),
		"skill_gaps":     stringList(),
		"reasoning":      str(),
	})
}

func jobSearchSchema() *openapi3.Schema {
	return object(map[string]*openapi3.Schema{
		"jobs": arrayOf(object(map[string]*openapi3.Schema{
			"title":           str(),
			"company":         str(),
			"location":        str(),
			"apply_link":      str(),
			"posted_days_ago": openapi3.NewFloat64Schema().WithNullable(),
		}, "posted_days_ago")),
	})
}

func resumeOptimizationSchema() *openapi3.Schema {
	return object(map[string]*openapi3.Schema{
		"section_improvements": object(map[string]*openapi3.Schema{
			"summary":    stringList(),
			"experience": stringList(),
			"projects":   stringList(),
			"skills":     stringList(),
		}),
		"rewritten_bullets": arrayOf(object(map[string]*openapi3.Schema{
			"before": str(),
			"after":  str(),
		})),
		"keywords_to_add":    stringList(),
		"keywords_to_remove": stringList(),
	})
}

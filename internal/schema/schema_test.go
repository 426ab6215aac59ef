package schema

import (
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	want := []string{CareerFit, JobSearch, ResumeOptimization, ResumeProfile}
	got := c.Names()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestRegisterRejectsDuplicatesAndNil(t *testing.T) {
	c := NewCatalog()
	if err := c.Register("x", openapi3.NewObjectSchema()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Register("x", openapi3.NewObjectSchema()); err == nil {
		t.Error("expected error for duplicate name")
	}
	if err := c.Register("y", nil); err == nil {
		t.Error("expected error for nil schema")
	}
	if err := c.Register("", openapi3.NewObjectSchema()); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestRequiredFields(t *testing.T) {
	tests := []struct {
		name     string
		required []string
	}{
		{CareerFit, []string{"good_fit_roles", "poor_fit_roles", "reasoning", "skill_gaps", "stretch_roles"}},
		{JobSearch, []string{"jobs"}},
		{ResumeOptimization, []string{"keywords_to_add", "keywords_to_remove", "rewritten_bullets", "section_improvements"}},
	}

	c := Default()
	for _, tt := range tests {
		s, ok := c.Get(tt.name)
		if !ok {
			t.Fatalf("%s missing", tt.name)
		}
		if strings.Join(s.Required, ",") != strings.Join(tt.required, ",") {
			t.Errorf("%s Required = %v, want %v", tt.name, s.Required, tt.required)
		}
	}
}

func TestJobPostedDaysIsOptionalAndNullable(t *testing.T) {
	s, _ := Default().Get(JobSearch)
	job := s.Properties["jobs"].Value.Items.Value

	for _, r := range job.Required {
		if r == "posted_days_ago" {
			t.Error("posted_days_ago should be optional")
		}
	}
	if !job.Properties["posted_days_ago"].Value.Nullable {
		t.Error("posted_days_ago should be nullable")
	}
}

func TestDescribe(t *testing.T) {
	s, _ := Default().Get(CareerFit)
	out, err := Describe(s)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	for _, field := range []string{"good_fit_roles", "reasoning", "required"} {
		if !strings.Contains(out, field) {
			t.Errorf("description missing %q:\n%s", field, out)
		}
	}
}

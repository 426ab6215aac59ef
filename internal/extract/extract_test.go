package extract

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"pgregory.net/rapid"

	"github.com/ShayCichocki/jobhunt/internal/schema"
	"github.com/ShayCichocki/jobhunt/pkg/models"
)

// into extracts raw against s and decodes the record into target.
func into(raw string, s *openapi3.Schema, target any) error {
	record, err := Extract(raw, s)
	if err != nil {
		return err
	}
	return Decode(record, target)
}

const careerFitJSON = `{
  "good_fit_roles": ["ML Engineer"],
  "stretch_roles": ["Data Scientist"],
  "poor_fit_roles": [],
  "skill_gaps": ["Kubernetes"],
  "reasoning": "Strong Python background."
}`

func TestIsolate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"tagged fence", "Here you go:\n```json\n{\"a\": 1}\n```\nThanks", `{"a": 1}`},
		{"tagged fence upper case", "```JSON\n{\"a\": 1}\n```", `{"a": 1}`},
		{"generic fence", "Result:\n```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"generic fence other tag", "```text\n{\"a\": 1}\n```", `{"a": 1}`},
		{"tagged wins over earlier generic", "```\nnotes\n```\n```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"jsonc is not the json tag", "```jsonc\n{\"a\": 1}\n```", `{"a": 1}`},
		{"no fence", "  {\"a\": 1}\n", `{"a": 1}`},
		{"inline fence", "```{\"a\": 1}```", `{"a": 1}`},
		{"fence inside string value", "```json\n{\"a\": \"use ``` here\"}\n```", "{\"a\": \"use ``` here\"}"},
		{"crlf fence", "```json\r\n{\"a\": 1}\r\n```\r\nbye", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Isolate(tt.raw); got != tt.want {
				t.Errorf("Isolate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractWrappingsYieldSameRecord(t *testing.T) {
	s, _ := schema.Default().Get(schema.CareerFit)

	wrappings := map[string]string{
		"tagged":  "I analysed the profile.\n```json\n" + careerFitJSON + "\n```\nLet me know.",
		"generic": "```\n" + careerFitJSON + "\n```",
		"bare":    careerFitJSON,
	}

	var first map[string]any
	for name, raw := range wrappings {
		record, err := Extract(raw, s)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if first == nil {
			first = record
			continue
		}
		if !reflect.DeepEqual(first, record) {
			t.Errorf("%s: record %v differs from %v", name, record, first)
		}
	}

	var fit models.CareerFit
	if err := Decode(first, &fit); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(fit.GoodFitRoles) != 1 || fit.GoodFitRoles[0] != "ML Engineer" {
		t.Errorf("GoodFitRoles = %v", fit.GoodFitRoles)
	}
	if fit.Reasoning != "Strong Python background." {
		t.Errorf("Reasoning = %q", fit.Reasoning)
	}
}

func TestExtractEmptyJobs(t *testing.T) {
	s, _ := schema.Default().Get(schema.JobSearch)

	var result models.JobSearchResult
	if err := into("```json\n{\"jobs\": []}\n```", s, &result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Jobs == nil || len(result.Jobs) != 0 {
		t.Errorf("Jobs = %#v, want empty non-nil slice", result.Jobs)
	}
}

func TestExtractJobWithNullPostedDays(t *testing.T) {
	s, _ := schema.Default().Get(schema.JobSearch)
	raw := `{"jobs": [
		{"title": "ML Engineer", "company": "Acme", "location": "Remote", "apply_link": "https://acme.example/jobs/1", "posted_days_ago": null},
		{"title": "Data Scientist", "company": "Beta", "location": "Pune", "apply_link": "", "posted_days_ago": 3},
		{"title": "MLOps", "company": "Gamma", "location": "Remote", "apply_link": ""}
	]}`

	var result models.JobSearchResult
	if err := into(raw, s, &result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Jobs) != 3 {
		t.Fatalf("got %d jobs, want 3", len(result.Jobs))
	}
	if result.Jobs[0].PostedDaysAgo != nil {
		t.Errorf("job 0 PostedDaysAgo = %v, want nil", *result.Jobs[0].PostedDaysAgo)
	}
	if result.Jobs[1].PostedDaysAgo == nil || *result.Jobs[1].PostedDaysAgo != 3 {
		t.Errorf("job 1 PostedDaysAgo = %v, want 3", result.Jobs[1].PostedDaysAgo)
	}
}

func TestExtractFailures(t *testing.T) {
	jobs, _ := schema.Default().Get(schema.JobSearch)

	tests := []struct {
		name  string
		raw   string
		stage Stage
	}{
		{"missing title", `{"jobs": [{"company": "Acme", "location": "Remote", "apply_link": "x"}]}`, StageValidate},
		{"wrong type", `{"jobs": [{"title": 7, "company": "Acme", "location": "Remote", "apply_link": "x"}]}`, StageValidate},
		{"jobs missing", `{"listings": []}`, StageValidate},
		{"null posted on non-null field", `{"jobs": [{"title": null, "company": "Acme", "location": "Remote", "apply_link": "x"}]}`, StageValidate},
		{"array payload", `[]`, StageValidate},
		{"prose only", "I could not find any jobs, sorry.", StageDecode},
		{"truncated json", "```json\n{\"jobs\": [\n```", StageDecode},
		{"empty", "   ", StageEmpty},
		{"empty fence", "```json\n```", StageEmpty},
		{"trailing data", `{"jobs": []} {"jobs": []}`, StageDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := Extract(tt.raw, jobs)
			if err == nil {
				t.Fatalf("expected error, got record %v", record)
			}
			if record != nil {
				t.Errorf("expected no partial record, got %v", record)
			}
			var extErr *ExtractionError
			if !errors.As(err, &extErr) {
				t.Fatalf("expected *ExtractionError, got %T: %v", err, err)
			}
			if extErr.Stage != tt.stage {
				t.Errorf("Stage = %s, want %s", extErr.Stage, tt.stage)
			}
			if extErr.Raw != tt.raw {
				t.Errorf("Raw = %q, want original text", extErr.Raw)
			}
		})
	}
}

func TestExtractFenceInsideStringValue(t *testing.T) {
	s, _ := schema.Default().Get(schema.CareerFit)
	raw := "```json\n" + `{
  "good_fit_roles": ["ML Engineer"],
  "stretch_roles": [],
  "poor_fit_roles": [],
  "skill_gaps": [],
  "reasoning": "Wrap code in ` + "```" + ` blocks when sharing it."
}` + "\n```"

	var fit models.CareerFit
	if err := into(raw, s, &fit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fit.Reasoning != "Wrap code in ``` blocks when sharing it." {
		t.Errorf("Reasoning = %q", fit.Reasoning)
	}
}

func TestExtractKeepsNumbersExact(t *testing.T) {
	s := openapi3.NewObjectSchema().WithProperty("n", openapi3.NewIntegerSchema())
	s.Required = []string{"n"}

	record, err := Extract(`{"n": 9007199254740993}`, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record["n"] != json.Number("9007199254740993") {
		t.Errorf("n = %#v, want exact json.Number", record["n"])
	}

	var out struct {
		N int64 `json:"n"`
	}
	if err := Decode(record, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.N != 9007199254740993 {
		t.Errorf("N = %d", out.N)
	}

	if _, err := Extract(`{"n": 1.5}`, s); err == nil {
		t.Error("expected a fractional value to fail an integer schema")
	}
}

func TestExtractNilSchema(t *testing.T) {
	if _, err := Extract("{}", nil); err == nil {
		t.Fatal("expected error for nil schema")
	}
}

func TestExtractionErrorTruncatesLongRaw(t *testing.T) {
	err := &ExtractionError{Stage: StageDecode, Raw: strings.Repeat("x", 2000), Err: errors.New("bad")}
	if !strings.Contains(err.Error(), "truncated") {
		t.Errorf("expected truncated preview in %q", err.Error())
	}
}

func TestExtractIdempotentProperty(t *testing.T) {
	s, _ := schema.Default().Get(schema.JobSearch)

	fragments := []string{
		"```json\n", "```\n", "```", "\n", " ", "Here are the jobs:",
		`{"jobs": []}`,
		`{"jobs": [{"title": "A", "company": "B", "location": "C", "apply_link": "D"}]}`,
		`{"jobs": [{"company": "B"}]}`,
		`{"jobs": `, "]}", "null", "{}",
	}

	rapid.Check(t, func(t *rapid.T) {
		parts := rapid.SliceOfN(rapid.SampledFrom(fragments), 0, 6).Draw(t, "parts")
		raw := strings.Join(parts, "")

		r1, err1 := Extract(raw, s)
		r2, err2 := Extract(raw, s)

		if (err1 == nil) != (err2 == nil) {
			t.Fatalf("inconsistent outcome: %v vs %v", err1, err2)
		}
		if err1 != nil {
			var e1, e2 *ExtractionError
			if !errors.As(err1, &e1) || !errors.As(err2, &e2) {
				t.Fatalf("expected extraction errors, got %T and %T", err1, err2)
			}
			if e1.Stage != e2.Stage || e1.Raw != e2.Raw {
				t.Fatalf("failures differ: %v vs %v", err1, err2)
			}
			return
		}
		if !reflect.DeepEqual(r1, r2) {
			t.Fatalf("records differ: %v vs %v", r1, r2)
		}
	})
}

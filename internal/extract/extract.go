// Package extract turns free-form worker output into records that satisfy a
// declared output contract. Extraction fails closed: anything that does not
// validate is reported as an *ExtractionError rather than patched up.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Stage identifies where extraction failed.
type Stage string

const (
	// StageEmpty means no candidate payload was found.
	StageEmpty Stage = "empty"
	// StageDecode means the payload was not valid JSON.
	StageDecode Stage = "decode"
	// StageValidate means the JSON did not satisfy the schema.
	StageValidate Stage = "validate"
)

// ExtractionError reports that raw worker output did not yield a record
// conforming to the schema. Raw holds the unmodified output for diagnostics.
type ExtractionError struct {
	Stage Stage
	Raw   string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed at %s: %v (raw output: %q)", e.Stage, e.Err, preview(e.Raw))
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// A closing fence counts only at the start of a line, so ``` inside a JSON
// string value never ends the block. Single-line fences are the fallback.
var (
	taggedBlock  = regexp.MustCompile("(?ims)```json\\b[ \t]*\r?\n(.*?)\r?\n[ \t]*```[ \t]*\r?$")
	genericBlock = regexp.MustCompile("(?ms)```[A-Za-z0-9_+-]*[ \t]*\r?\n(.*?)\r?\n[ \t]*```[ \t]*\r?$")
	taggedFence  = regexp.MustCompile("(?is)```json\\b[ \t]*\r?\n?(.*?)```")
	genericFence = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \t]*\r?\n?(.*?)```")
)

// Isolate returns the candidate payload inside raw: the first block fenced as
// json, otherwise the first fenced block of any kind, otherwise raw itself.
// The result is trimmed of surrounding whitespace.
func Isolate(raw string) string {
	for _, re := range []*regexp.Regexp{taggedBlock, taggedFence, genericBlock, genericFence} {
		if m := re.FindStringSubmatch(raw); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return strings.TrimSpace(raw)
}

// Extract isolates the payload in raw, decodes it and validates it against s.
// The returned record is the decoded JSON object.
func Extract(raw string, s *openapi3.Schema) (map[string]any, error) {
	if s == nil {
		return nil, errors.New("extract: schema is nil")
	}

	payload := Isolate(raw)
	if payload == "" {
		return nil, &ExtractionError{Stage: StageEmpty, Raw: raw, Err: errors.New("no payload found")}
	}

	value, err := decode(payload)
	if err != nil {
		return nil, &ExtractionError{Stage: StageDecode, Raw: raw, Err: err}
	}

	if err := s.VisitJSON(value, openapi3.MultiErrors()); err != nil {
		return nil, &ExtractionError{Stage: StageValidate, Raw: raw, Err: err}
	}

	record, ok := value.(map[string]any)
	if !ok {
		return nil, &ExtractionError{
			Stage: StageValidate,
			Raw:   raw,
			Err:   fmt.Errorf("expected a JSON object, got %T", value),
		}
	}
	return record, nil
}

// decode reads exactly one JSON value. Numbers stay json.Number so large
// integers survive intact; anything after the value is an error.
func decode(payload string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value at offset %d", dec.InputOffset())
	}
	return value, nil
}

// Decode converts a validated record into a typed value.
func Decode(record map[string]any, target any) error {
	b, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("re-encode record: %w", err)
	}
	if err := json.Unmarshal(b, target); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

func preview(s string) string {
	if len(s) > 500 {
		return s[:500] + "... (truncated)"
	}
	return s
}

// Package checkpoint pauses a pipeline between phases to collect validated
// human choices. A gate only displays the previous phase's result; it never
// changes it.
package checkpoint

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the input shape of a checkpoint field.
type Kind int

const (
	// KindMultiChoice selects a subset of Options by name or 1-based index.
	KindMultiChoice Kind = iota
	// KindText accepts free text.
	KindText
	// KindEnum selects exactly one of Options by name.
	KindEnum
	// KindIndex selects one of Options by 1-based position.
	KindIndex
)

func (k Kind) String() string {
	switch k {
	case KindMultiChoice:
		return "multi-choice"
	case KindText:
		return "text"
	case KindEnum:
		return "enum"
	case KindIndex:
		return "index"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// FieldSpec describes one value to collect.
type FieldSpec struct {
	// Name keys the value in the Selection.
	Name string
	// Prompt is the question shown to the user.
	Prompt string
	Kind   Kind
	// Options are the allowed values for choice, enum and index fields.
	Options []string
	// AllowCustom lets multi-choice fields accept names not in Options.
	AllowCustom bool

	// Default is the fallback for text and enum fields.
	Default string
	// DefaultChoices is the fallback for multi-choice fields.
	DefaultChoices []string
	// DefaultIndex is the 1-based fallback for index fields; 0 means none.
	DefaultIndex int
}

// HasDefault reports whether the field can be resolved without valid input.
func (f FieldSpec) HasDefault() bool {
	switch f.Kind {
	case KindMultiChoice:
		return len(f.DefaultChoices) > 0
	case KindIndex:
		return f.DefaultIndex >= 1 && f.DefaultIndex <= len(f.Options)
	default:
		return f.Default != ""
	}
}

// DefaultValue returns the value used when input is blank or invalid.
func (f FieldSpec) DefaultValue() (any, bool) {
	if !f.HasDefault() {
		return nil, false
	}
	switch f.Kind {
	case KindMultiChoice:
		return append([]string(nil), f.DefaultChoices...), true
	case KindIndex:
		return f.DefaultIndex - 1, true
	default:
		return f.Default, true
	}
}

// DefaultLabel renders the default for display.
func (f FieldSpec) DefaultLabel() string {
	if !f.HasDefault() {
		return ""
	}
	switch f.Kind {
	case KindMultiChoice:
		return strings.Join(f.DefaultChoices, ", ")
	case KindIndex:
		return strconv.Itoa(f.DefaultIndex)
	default:
		return f.Default
	}
}

// Validate checks the field definition itself.
func (f FieldSpec) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("checkpoint field name is required")
	}
	switch f.Kind {
	case KindMultiChoice:
		if len(f.Options) == 0 && !f.AllowCustom {
			return fmt.Errorf("field %s: no options", f.Name)
		}
	case KindEnum, KindIndex:
		if len(f.Options) == 0 {
			return fmt.Errorf("field %s: no options", f.Name)
		}
	case KindText:
	default:
		return fmt.Errorf("field %s: unknown kind %s", f.Name, f.Kind)
	}
	return nil
}

// Selection holds the validated values collected at a checkpoint.
type Selection map[string]any

// Strings returns a multi-choice value.
func (s Selection) Strings(name string) []string {
	v, _ := s[name].([]string)
	return v
}

// String returns a text or enum value.
func (s Selection) String(name string) string {
	v, _ := s[name].(string)
	return v
}

// Index returns the 0-based value of an index field, or -1 when absent.
func (s Selection) Index(name string) int {
	v, ok := s[name].(int)
	if !ok {
		return -1
	}
	return v
}

// Gate collects selections for fields after showing result to the user.
// Implementations must treat result as read-only.
type Gate interface {
	CollectSelections(ctx context.Context, result any, fields []FieldSpec) (Selection, error)
}

// SelectionHook observes each resolved field and whether it fell back to its
// default, either because input was blank, invalid or never arrived.
type SelectionHook func(field string, usedDefault bool)

// ObservableGate is a Gate that reports how each field was resolved.
type ObservableGate interface {
	Gate
	SetSelectionHook(h SelectionHook)
}

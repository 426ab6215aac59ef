package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
)

// FormGate collects selections with interactive terminal forms.
type FormGate struct {
	out     io.Writer
	present Presenter
	timeout time.Duration
	hook    SelectionHook
}

// NewFormGate creates a gate that renders result with present and then
// shows one form group per field.
func NewFormGate(present Presenter, timeout time.Duration) *FormGate {
	return &FormGate{out: os.Stdout, present: present, timeout: timeout}
}

// SetSelectionHook implements ObservableGate.
func (g *FormGate) SetSelectionHook(h SelectionHook) {
	g.hook = h
}

// formValue binds a huh field to the raw text later run through Resolve.
type formValue struct {
	spec   FieldSpec
	text   string
	picked []string
	custom string
}

// CollectSelections implements Gate.
func (g *FormGate) CollectSelections(ctx context.Context, result any, fields []FieldSpec) (Selection, error) {
	for _, f := range fields {
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}

	if g.present != nil && result != nil {
		g.present(g.out, result)
	}

	values := make([]*formValue, len(fields))
	groups := make([]*huh.Group, 0, len(fields))
	for i, f := range fields {
		v := &formValue{spec: f}
		values[i] = v
		groups = append(groups, huh.NewGroup(formFields(v)...))
	}

	form := huh.NewForm(groups...)
	if g.timeout > 0 {
		form = form.WithTimeout(g.timeout)
	}

	sel := make(Selection, len(fields))
	if err := form.RunWithContext(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, huh.ErrTimeout) {
			return nil, fmt.Errorf("checkpoint form: %w", err)
		}
		// Timed out: anything already answered stands, the rest defaults.
	}

	for _, v := range values {
		val, usedDefault, err := v.spec.Resolve(v.input())
		if err != nil {
			return nil, err
		}
		sel[v.spec.Name] = val
		if g.hook != nil {
			g.hook(v.spec.Name, usedDefault)
		}
	}
	return sel, nil
}

// input renders the form state in the console input syntax.
func (v *formValue) input() string {
	if v.spec.Kind != KindMultiChoice {
		return v.text
	}
	parts := append([]string(nil), v.picked...)
	if strings.TrimSpace(v.custom) != "" {
		parts = append(parts, v.custom)
	}
	return strings.Join(parts, ",")
}

func formFields(v *formValue) []huh.Field {
	f := v.spec
	title := f.Prompt
	if label := f.DefaultLabel(); label != "" {
		title = fmt.Sprintf("%s (default: %s)", f.Prompt, label)
	}

	switch f.Kind {
	case KindMultiChoice:
		v.picked = append([]string(nil), f.DefaultChoices...)
		var fields []huh.Field
		if len(f.Options) > 0 {
			fields = append(fields, huh.NewMultiSelect[string]().
				Title(title).
				Options(huh.NewOptions(f.Options...)...).
				Value(&v.picked))
		}
		if f.AllowCustom {
			fields = append(fields, huh.NewInput().
				Title("Other (comma separated)").
				Value(&v.custom))
		}
		return fields

	case KindEnum:
		v.text = f.Default
		return []huh.Field{huh.NewSelect[string]().
			Title(title).
			Options(huh.NewOptions(f.Options...)...).
			Value(&v.text)}

	case KindIndex:
		opts := make([]huh.Option[string], len(f.Options))
		for i, label := range f.Options {
			opts[i] = huh.NewOption(fmt.Sprintf("%d. %s", i+1, label), strconv.Itoa(i+1))
		}
		if f.HasDefault() {
			v.text = strconv.Itoa(f.DefaultIndex)
		}
		return []huh.Field{huh.NewSelect[string]().
			Title(title).
			Options(opts...).
			Value(&v.text)}

	default:
		return []huh.Field{huh.NewInput().
			Title(title).
			Placeholder(f.Default).
			Value(&v.text)}
	}
}

// IsInteractive returns true if stdin is a terminal (not piped).
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShouldUseForms reports whether interactive forms can be shown: stdin is a
// terminal and no CI environment is detected.
func ShouldUseForms() bool {
	ciEnvVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"BUILDKITE",
	}
	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return false
		}
	}
	return IsInteractive()
}

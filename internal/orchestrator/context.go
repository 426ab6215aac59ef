package orchestrator

import (
	"encoding/json"
	"fmt"
	"regexp"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExecutionContext maps placeholder names to values during one phase run.
// It starts with the caller's parameters and gains each completed task's
// structured result under the task ID.
type ExecutionContext struct {
	values map[string]any
}

// NewExecutionContext seeds a context with a copy of params.
func NewExecutionContext(params map[string]any) *ExecutionContext {
	values := make(map[string]any, len(params))
	for k, v := range params {
		values[k] = v
	}
	return &ExecutionContext{values: values}
}

// Set stores a value, replacing any previous one.
func (c *ExecutionContext) Set(key string, value any) {
	c.values[key] = value
}

// Placeholders lists the distinct placeholder names in template, in order of
// first appearance.
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Render fills every {name} in template from the context. Strings are inserted
// as is; other values are inserted as JSON. The first placeholder with no
// value yields a *MissingParameterError.
func (c *ExecutionContext) Render(taskID, template string) (string, error) {
	for _, name := range Placeholders(template) {
		if _, ok := c.values[name]; !ok {
			return "", &MissingParameterError{TaskID: taskID, Name: name}
		}
	}

	var renderErr error
	out := placeholderPattern.ReplaceAllStringFunc(template, func(m string) string {
		name := m[1 : len(m)-1]
		s, err := formatValue(c.values[name])
		if err != nil && renderErr == nil {
			renderErr = fmt.Errorf("task %s: render {%s}: %w", taskID, name, err)
		}
		return s
	})
	if renderErr != nil {
		return "", renderErr
	}
	return out, nil
}

func formatValue(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case fmt.Stringer:
		return val.String(), nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

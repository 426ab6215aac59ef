package checkpoint

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError reports input that does not satisfy a field. Gates handle
// it by falling back to the default or asking again.
type ValidationError struct {
	Field  string
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Input, e.Reason)
}

// Parse validates raw input for f. Blank input is a validation error; use
// Resolve to apply defaults.
func (f FieldSpec) Parse(input string) (any, error) {
	input = strings.TrimSpace(input)
	invalid := func(reason string) error {
		return &ValidationError{Field: f.Name, Input: input, Reason: reason}
	}
	if input == "" {
		return nil, invalid("no value given")
	}

	switch f.Kind {
	case KindText:
		return input, nil

	case KindEnum:
		for _, opt := range f.Options {
			if strings.EqualFold(opt, input) {
				return opt, nil
			}
		}
		return nil, invalid("must be one of " + strings.Join(f.Options, ", "))

	case KindIndex:
		n, err := strconv.Atoi(input)
		if err != nil {
			return nil, invalid("not a number")
		}
		if n < 1 || n > len(f.Options) {
			return nil, invalid(fmt.Sprintf("must be between 1 and %d", len(f.Options)))
		}
		return n - 1, nil

	case KindMultiChoice:
		var out []string
		seen := make(map[string]bool)
		for _, part := range strings.Split(input, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			choice, err := f.choice(part)
			if err != nil {
				return nil, err
			}
			if !seen[choice] {
				seen[choice] = true
				out = append(out, choice)
			}
		}
		if len(out) == 0 {
			return nil, invalid("no choices given")
		}
		return out, nil

	default:
		return nil, invalid("unknown field kind " + f.Kind.String())
	}
}

func (f FieldSpec) choice(part string) (string, error) {
	if n, err := strconv.Atoi(part); err == nil {
		if n < 1 || n > len(f.Options) {
			return "", &ValidationError{Field: f.Name, Input: part, Reason: fmt.Sprintf("must be between 1 and %d", len(f.Options))}
		}
		return f.Options[n-1], nil
	}
	for _, opt := range f.Options {
		if strings.EqualFold(opt, part) {
			return opt, nil
		}
	}
	if f.AllowCustom {
		return part, nil
	}
	return "", &ValidationError{Field: f.Name, Input: part, Reason: "not one of " + strings.Join(f.Options, ", ")}
}

// Resolve parses input and substitutes the default when the input is blank
// or invalid. It returns a *ValidationError only when there is no default,
// in which case the caller should ask again.
func (f FieldSpec) Resolve(input string) (value any, usedDefault bool, err error) {
	v, err := f.Parse(input)
	if err == nil {
		return v, false, nil
	}
	if d, ok := f.DefaultValue(); ok {
		return d, true, nil
	}
	return nil, false, err
}

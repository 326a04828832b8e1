package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrFixture marks errors caused by the scenario definition itself.
var ErrFixture = errors.New("fixture error")

func fixtureErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFixture, fmt.Sprintf(format, args...))
}

// Expand replaces ${name} placeholders with variables and ${env.NAME} with
// environment values. Unknown variables are fixture errors.
func Expand(s string, vars map[string]string) (string, error) {
	var b strings.Builder
	rest := s
	for {
		start := strings.Index(rest, "${")
		if start == -1 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.Index(rest[start:], "}")
		if end == -1 {
			return "", fixtureErrorf("unterminated placeholder in %q", s)
		}
		end += start

		value, err := resolve(rest[start+2:end], vars)
		if err != nil {
			return "", err
		}
		b.WriteString(rest[:start])
		b.WriteString(value)
		rest = rest[end+1:]
	}
}

func resolve(expr string, vars map[string]string) (string, error) {
	expr = strings.TrimSpace(expr)
	if name, ok := strings.CutPrefix(expr, "env."); ok {
		return os.Getenv(name), nil
	}
	if val, ok := vars[expr]; ok {
		return val, nil
	}
	return "", fixtureErrorf("unresolved variable `%s`", expr)
}

// expandValue expands placeholders in every string inside v.
func expandValue(v any, vars map[string]string) (any, error) {
	switch t := v.(type) {
	case string:
		return Expand(t, vars)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			expanded, err := expandValue(item, vars)
			if err != nil {
				return nil, err
			}
			out[k] = expanded
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			expanded, err := expandValue(item, vars)
			if err != nil {
				return nil, err
			}
			out[i] = expanded
		}
		return out, nil
	default:
		return v, nil
	}
}

func expandMap(m map[string]string, vars map[string]string) (map[string]string, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		expanded, err := Expand(v, vars)
		if err != nil {
			return nil, fmt.Errorf("header %q: %w", k, err)
		}
		out[k] = expanded
	}
	return out, nil
}

package scenario

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// EvaluateBodyAssertions checks gjson-path assertions against a JSON body.
// Paths are evaluated in sorted order so the reported failure is stable.
func EvaluateBodyAssertions(body []byte, assertions map[string]any) error {
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("response body is not valid JSON")
	}

	paths := make([]string, 0, len(assertions))
	for p := range assertions {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := evaluateOne(gjson.GetBytes(body, path), path, assertions[path]); err != nil {
			return err
		}
	}
	return nil
}

func evaluateOne(result gjson.Result, path string, expected any) error {
	if ops, ok := expected.(map[string]any); ok {
		return evaluateOperators(path, result, ops)
	}

	if !result.Exists() {
		return fmt.Errorf("path %q: no match found", path)
	}
	if !valuesEqual(result.Value(), expected) {
		return fmt.Errorf("path %q: expected %v, got %v", path, expected, result.Value())
	}
	return nil
}

// evaluateOperators processes operator maps like {"eq": v} or {"gte": n}.
func evaluateOperators(path string, result gjson.Result, ops map[string]any) error {
	names := make([]string, 0, len(ops))
	for op := range ops {
		names = append(names, op)
	}
	sort.Strings(names)

	for _, op := range names {
		expected := ops[op]

		if op == "exists" {
			want, ok := expected.(bool)
			if !ok {
				return fixtureErrorf("path %q: 'exists' operator requires a boolean value", path)
			}
			if want && !result.Exists() {
				return fmt.Errorf("path %q: expected to exist but no match found", path)
			}
			if !want && result.Exists() {
				return fmt.Errorf("path %q: expected not to exist but found %s", path, result.Raw)
			}
			continue
		}

		if !isKnownOperator(op) {
			return fixtureErrorf("path %q: unknown operator %q", path, op)
		}
		if !result.Exists() {
			return fmt.Errorf("path %q: no match found for '%s' check", path, op)
		}
		actual := result.Value()

		switch op {
		case "eq":
			if !valuesEqual(actual, expected) {
				return fmt.Errorf("path %q: expected eq %v, got %v", path, expected, actual)
			}

		case "gte", "lte":
			actualNum, err := toFloat64(actual)
			if err != nil {
				return fmt.Errorf("path %q: '%s' requires numeric actual value: %w", path, op, err)
			}
			expectedNum, err := toFloat64(expected)
			if err != nil {
				return fixtureErrorf("path %q: '%s' requires numeric expected value: %v", path, op, err)
			}
			if op == "gte" && actualNum < expectedNum {
				return fmt.Errorf("path %q: expected >= %v, got %v", path, expectedNum, actualNum)
			}
			if op == "lte" && actualNum > expectedNum {
				return fmt.Errorf("path %q: expected <= %v, got %v", path, expectedNum, actualNum)
			}

		case "contains":
			actualStr := result.String()
			expectedStr := fmt.Sprintf("%v", expected)
			if !strings.Contains(actualStr, expectedStr) {
				return fmt.Errorf("path %q: expected to contain %q, got %q", path, expectedStr, actualStr)
			}

		case "regex":
			pattern, ok := expected.(string)
			if !ok {
				return fixtureErrorf("path %q: 'regex' operator requires a string pattern", path)
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				return fixtureErrorf("path %q: invalid regex pattern %q: %v", path, pattern, err)
			}
			if !re.MatchString(result.String()) {
				return fmt.Errorf("path %q: value %q does not match regex %q", path, result.String(), pattern)
			}
		}
	}
	return nil
}

func isKnownOperator(op string) bool {
	switch op {
	case "eq", "gte", "lte", "contains", "regex":
		return true
	}
	return false
}

// valuesEqual compares two values, treating all numeric types alike.
// A number never equals a string.
func valuesEqual(actual, expected any) bool {
	actualNum, aErr := toFloat64(actual)
	expectedNum, eErr := toFloat64(expected)

	if aErr == nil && eErr == nil {
		return actualNum == expectedNum
	}
	if (aErr == nil) != (eErr == nil) {
		return false
	}
	return fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", expected)
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not numeric", v, v)
	}
}

// headerMatches compares a header value; a media type also matches when the
// actual value carries parameters ("application/json; charset=UTF-8").
func headerMatches(actual, expected string) bool {
	if actual == expected {
		return true
	}
	mediaType, _, found := strings.Cut(actual, ";")
	return found && strings.EqualFold(strings.TrimSpace(mediaType), expected)
}

func checkStatus(got, want int) error {
	if want != 0 && got != want {
		return fmt.Errorf("expected status %d, got %d", want, got)
	}
	return nil
}

func checkHeaders(h http.Header, want map[string]string) error {
	keys := make([]string, 0, len(want))
	for k := range want {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if actual := h.Get(k); !headerMatches(actual, want[k]) {
			return fmt.Errorf("header %q: expected %q, got %q", k, want[k], actual)
		}
	}
	return nil
}

// captureValue renders a captured gjson result as a template variable.
func captureValue(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		return strconv.FormatFloat(r.Num, 'f', -1, 64)
	default:
		return r.Raw
	}
}

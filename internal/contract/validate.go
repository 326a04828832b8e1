package contract

import (
	"encoding/json"
	"reflect"

	"github.com/tidwall/gjson"
)

const rootPath = "$"

// Validate checks payload against schema and returns the first violated
// expectation, in field-declaration order and then array-index order.
//
// The result is nil on success, a *SchemaError when the schema is malformed
// (checked before the payload is looked at) or a *Violation otherwise.
// The payload is never modified.
func Validate(payload any, schema Schema) error {
	if err := schema.Check(); err != nil {
		return err
	}

	var first error
	walkRecord(payload, schema, "", func(v *Violation) bool {
		first = v
		return false
	})
	return first
}

// ValidateAll is the aggregate form of Validate: it returns every violation
// in the same deterministic order, so ValidateAll(p, s)[0] equals Validate(p, s).
// A malformed schema yields a single *SchemaError.
func ValidateAll(payload any, schema Schema) []error {
	if err := schema.Check(); err != nil {
		return []error{err}
	}

	var all []error
	walkRecord(payload, schema, "", func(v *Violation) bool {
		all = append(all, v)
		return true
	})
	return all
}

// ValidateJSON decodes raw and validates it. When path is non-empty it is a
// gjson path (e.g. "data.account") selecting the sub-document to validate;
// violation paths are then reported relative to the document root.
func ValidateJSON(raw []byte, path string, schema Schema) error {
	if err := schema.Check(); err != nil {
		return err
	}

	if !gjson.ValidBytes(raw) {
		return &Violation{Kind: ViolationMalformed, Path: rootPath, Value: truncate(string(raw), 64)}
	}

	var doc any
	if path == "" {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return &Violation{Kind: ViolationMalformed, Path: rootPath, Value: err.Error()}
		}
	} else {
		res := gjson.GetBytes(raw, path)
		if !res.Exists() {
			return &Violation{Kind: ViolationMissingField, Path: path}
		}
		doc = res.Value()
	}

	var first error
	walkRecord(doc, schema, path, func(v *Violation) bool {
		first = v
		return false
	})
	return first
}

// visitFunc receives each violation; returning false stops the walk.
type visitFunc func(v *Violation) bool

// walkRecord validates a single record at path against schema. It returns
// false when the visitor asked to stop.
func walkRecord(value any, schema Schema, path string, visit visitFunc) bool {
	obj, ok := asObject(value)
	if !ok {
		at := path
		if at == "" {
			at = rootPath
		}
		return visit(&Violation{Kind: ViolationTypeMismatch, Path: at, Expected: "object", Actual: typeName(value)})
	}

	for _, f := range schema.Fields {
		fieldPath := joinPath(path, f.Name)
		v, present := obj[f.Name]
		if !present {
			if !visit(&Violation{Kind: ViolationMissingField, Path: fieldPath}) {
				return false
			}
			continue
		}
		if !walkField(v, f, fieldPath, visit) {
			return false
		}
	}
	return true
}

func walkField(value any, f Field, path string, visit visitFunc) bool {
	switch f.Type {
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return visit(&Violation{Kind: ViolationTypeMismatch, Path: path, Expected: string(f.Type), Actual: typeName(value)})
		}
		if len(f.Enum) > 0 && !contains(f.Enum, s) {
			return visit(&Violation{Kind: ViolationNotAllowed, Path: path, Value: s})
		}
	case TypeNumber:
		if !isNumber(value) {
			return visit(&Violation{Kind: ViolationTypeMismatch, Path: path, Expected: string(f.Type), Actual: typeName(value)})
		}
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return visit(&Violation{Kind: ViolationTypeMismatch, Path: path, Expected: string(f.Type), Actual: typeName(value)})
		}
	case TypeArray:
		items, ok := asArray(value)
		if !ok {
			return visit(&Violation{Kind: ViolationTypeMismatch, Path: path, Expected: string(f.Type), Actual: typeName(value)})
		}
		for i, item := range items {
			if !walkRecord(item, *f.Items, indexPath(path, i), visit) {
				return false
			}
		}
	}
	return true
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

// asObject returns value as a string-keyed map. Maps that are not
// map[string]any are copied, so the caller's payload is left untouched.
func asObject(value any) (map[string]any, bool) {
	if m, ok := value.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func asArray(value any) ([]any, bool) {
	if a, ok := value.([]any); ok {
		return a, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	// []byte decodes from a JSON string, not an array
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func isNumber(value any) bool {
	switch value.(type) {
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return true
	}
	return false
}

// typeName returns the JSON type name of a decoded value.
func typeName(value any) string {
	if value == nil {
		return "null"
	}
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	}
	if isNumber(value) {
		return "number"
	}
	if _, ok := asArray(value); ok {
		return "array"
	}
	if _, ok := asObject(value); ok {
		return "object"
	}
	return reflect.TypeOf(value).String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

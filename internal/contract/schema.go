// Package contract validates decoded JSON payloads against declarative shape
// contracts: required fields, primitive types, enumerated string values and
// arrays of nested records.
package contract

import (
	"fmt"
	"strings"
)

// Type is the expected-type tag of a field.
type Type string

const (
	// TypeString matches JSON strings
	TypeString Type = "string"
	// TypeNumber matches JSON numbers (and Go numeric kinds)
	TypeNumber Type = "number"
	// TypeBoolean matches JSON booleans
	TypeBoolean Type = "boolean"
	// TypeArray matches an array whose elements are records described by Field.Items
	TypeArray Type = "array"
)

// Field declares one required key of a record.
type Field struct {
	Name string
	Type Type

	// Enum restricts a string field to a fixed set of literal values.
	Enum []string

	// Items is the record schema applied to every element of an array field.
	Items *Schema
}

// Schema is an ordered list of required fields. Validation walks fields in
// declaration order, which makes the reported violation deterministic.
type Schema struct {
	Fields []Field
}

// Object builds a record schema from fields, in order.
func Object(fields ...Field) Schema {
	return Schema{Fields: fields}
}

// String declares a required string field.
func String(name string) Field {
	return Field{Name: name, Type: TypeString}
}

// Number declares a required number field.
func Number(name string) Field {
	return Field{Name: name, Type: TypeNumber}
}

// Boolean declares a required boolean field.
func Boolean(name string) Field {
	return Field{Name: name, Type: TypeBoolean}
}

// Enum declares a required string field restricted to the given values.
func Enum(name string, values ...string) Field {
	return Field{Name: name, Type: TypeString, Enum: values}
}

// ArrayOf declares a required array field whose elements must each satisfy record.
func ArrayOf(name string, record Schema) Field {
	return Field{Name: name, Type: TypeArray, Items: &record}
}

// FieldNames returns the declared field names in order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Check reports whether the schema itself is well-formed. It never looks at a
// payload; every problem it finds is a *SchemaError.
func (s Schema) Check() error {
	return s.check("", map[*Schema]struct{}{})
}

// check walks nested record schemas; active holds the ones on the current
// descent so a schema that contains itself is reported instead of followed.
func (s Schema) check(prefix string, active map[*Schema]struct{}) error {
	if len(s.Fields) == 0 {
		return &SchemaError{Path: prefix, Message: "schema declares no fields"}
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return &SchemaError{Path: prefix, Message: "field with empty name"}
		}
		path := joinPath(prefix, f.Name)
		if _, dup := seen[f.Name]; dup {
			return &SchemaError{Path: path, Message: "duplicate field"}
		}
		seen[f.Name] = struct{}{}

		switch f.Type {
		case TypeString:
		case TypeNumber, TypeBoolean:
			if len(f.Enum) > 0 {
				return &SchemaError{Path: path, Message: fmt.Sprintf("allowed-value set is only supported on string fields, not `%s`", f.Type)}
			}
		case TypeArray:
			if f.Items == nil {
				return &SchemaError{Path: path, Message: "array-of-records field has no record schema"}
			}
			if len(f.Enum) > 0 {
				return &SchemaError{Path: path, Message: "allowed-value set is only supported on string fields, not `array`"}
			}
			if _, cycle := active[f.Items]; cycle {
				return &SchemaError{Path: path, Message: "recursive record schema"}
			}
			active[f.Items] = struct{}{}
			err := f.Items.check(path+"[]", active)
			delete(active, f.Items)
			if err != nil {
				return err
			}
			continue
		case "":
			return &SchemaError{Path: path, Message: "missing type tag"}
		default:
			return &SchemaError{Path: path, Message: fmt.Sprintf("unknown type tag `%s`", f.Type)}
		}

		if f.Items != nil {
			return &SchemaError{Path: path, Message: fmt.Sprintf("record schema is only allowed on array fields, not `%s`", f.Type)}
		}
	}
	return nil
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func indexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

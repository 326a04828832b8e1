package contract

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// FromOpenAPI converts a component schema of an OpenAPI 3 document into a
// contract Schema. Required properties become fields in the order of the
// component's "required" list; optional properties are ignored.
//
// Supported property types are string (with enum), number, integer, boolean
// and arrays of objects. Anything else is reported as a *SchemaError.
func FromOpenAPI(data []byte, component string) (Schema, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return Schema{}, &SchemaError{Message: fmt.Sprintf("loading OpenAPI document: %v", err)}
	}
	if doc.Components == nil {
		return Schema{}, &SchemaError{Message: "OpenAPI document has no components"}
	}

	ref, ok := doc.Components.Schemas[component]
	if !ok || ref == nil || ref.Value == nil {
		return Schema{}, &SchemaError{Message: fmt.Sprintf("OpenAPI component %q not found", component)}
	}

	schema, err := fromOpenAPISchema(ref.Value, "")
	if err != nil {
		return Schema{}, err
	}
	if err := schema.Check(); err != nil {
		return Schema{}, err
	}
	return schema, nil
}

func fromOpenAPISchema(s *openapi3.Schema, prefix string) (Schema, error) {
	if !s.Type.Is(openapi3.TypeObject) && len(s.Properties) == 0 {
		return Schema{}, &SchemaError{Path: prefix, Message: "OpenAPI schema is not an object"}
	}

	out := Schema{Fields: make([]Field, 0, len(s.Required))}
	for _, name := range s.Required {
		path := joinPath(prefix, name)
		prop, ok := s.Properties[name]
		if !ok || prop == nil || prop.Value == nil {
			return Schema{}, &SchemaError{Path: path, Message: "required property has no definition"}
		}

		f, err := fromOpenAPIProperty(name, prop.Value, path)
		if err != nil {
			return Schema{}, err
		}
		out.Fields = append(out.Fields, f)
	}
	return out, nil
}

func fromOpenAPIProperty(name string, p *openapi3.Schema, path string) (Field, error) {
	switch {
	case p.Type.Is(openapi3.TypeString):
		f := String(name)
		for _, v := range p.Enum {
			s, ok := v.(string)
			if !ok {
				return Field{}, &SchemaError{Path: path, Message: fmt.Sprintf("non-string enum value %v", v)}
			}
			f.Enum = append(f.Enum, s)
		}
		return f, nil

	case p.Type.Is(openapi3.TypeNumber), p.Type.Is(openapi3.TypeInteger):
		return Number(name), nil

	case p.Type.Is(openapi3.TypeBoolean):
		return Boolean(name), nil

	case p.Type.Is(openapi3.TypeArray):
		if p.Items == nil || p.Items.Value == nil {
			return Field{}, &SchemaError{Path: path, Message: "array property has no items schema"}
		}
		record, err := fromOpenAPISchema(p.Items.Value, path+"[]")
		if err != nil {
			return Field{}, err
		}
		return ArrayOf(name, record), nil

	default:
		return Field{}, &SchemaError{Path: path, Message: fmt.Sprintf("unsupported OpenAPI type %v", typeList(p.Type))}
	}
}

func typeList(t *openapi3.Types) []string {
	if t == nil {
		return nil
	}
	return []string(*t)
}

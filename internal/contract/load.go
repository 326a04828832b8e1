package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// schemaDoc is the on-disk form of a Schema. YAML is a superset of JSON, so
// both encodings are accepted.
type schemaDoc struct {
	Name   string     `yaml:"name,omitempty"`
	Fields []fieldDoc `yaml:"fields"`
}

type fieldDoc struct {
	Name  string     `yaml:"name"`
	Type  string     `yaml:"type"`
	Enum  []string   `yaml:"enum,omitempty"`
	Items *schemaDoc `yaml:"items,omitempty"`
}

// ParseSchema parses a schema document:
//
//	fields:
//	  - name: currency
//	    type: string
//	  - name: transactions
//	    type: array
//	    items:
//	      fields:
//	        - {name: type, type: string, enum: [deposit, withdrawal, transfer]}
//
// It returns the schema's declared name (may be empty) and a *SchemaError when
// the document describes a malformed schema.
func ParseSchema(data []byte) (string, Schema, error) {
	var doc schemaDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", Schema{}, &SchemaError{Message: fmt.Sprintf("parsing schema document: %v", err)}
	}

	schema := doc.toSchema()
	if err := schema.Check(); err != nil {
		return doc.Name, Schema{}, err
	}
	return doc.Name, schema, nil
}

func (d *schemaDoc) toSchema() Schema {
	s := Schema{Fields: make([]Field, 0, len(d.Fields))}
	for _, fd := range d.Fields {
		f := Field{
			Name: fd.Name,
			Type: parseType(fd.Type),
			Enum: fd.Enum,
		}
		if fd.Items != nil {
			items := fd.Items.toSchema()
			f.Items = &items
		}
		s.Fields = append(s.Fields, f)
	}
	return s
}

// parseType accepts the tag spellings used in contract documents. Unknown tags
// are passed through so Check can report them.
func parseType(tag string) Type {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "string":
		return TypeString
	case "number", "integer", "float":
		return TypeNumber
	case "boolean", "bool":
		return TypeBoolean
	case "array", "array-of", "array-of-records":
		return TypeArray
	default:
		return Type(tag)
	}
}

// LoadSchemaFile reads and parses a schema document from disk.
func LoadSchemaFile(path string) (string, Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", Schema{}, fmt.Errorf("reading schema %s: %w", path, err)
	}
	name, schema, err := ParseSchema(data)
	if err != nil {
		return "", Schema{}, fmt.Errorf("schema %s: %w", path, err)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return name, schema, nil
}

// LoadDir registers every .yaml, .yml and .json schema document in dir.
// A document without a name is registered under its file name.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading contract directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		name, schema, err := LoadSchemaFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		r.Register(name, schema)
	}
	return nil
}

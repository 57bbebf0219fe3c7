package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"nrjtrack/internal/core"
)

// fieldsFile is the YAML layout of the field schema file:
//
//	fields:
//	  - name: gaz
//	    type: number
//	  - name: comment
//	    type: text
type fieldsFile struct {
	Fields []core.FieldDefinition `yaml:"fields"`
}

// LoadSchema reads the field schema file at path. A missing file yields
// the default schema.
func LoadSchema(path string) (*core.Schema, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return core.DefaultSchema(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open fields config: %w", err)
	}
	defer f.Close()

	return ParseSchema(f)
}

// ParseSchema decodes a YAML field schema. Unknown keys are rejected.
func ParseSchema(r io.Reader) (*core.Schema, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file fieldsFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode fields config: %w", core.ErrInvalidField)
		}
		return nil, fmt.Errorf("decode fields config: %w", err)
	}

	schema, err := core.NewSchema(file.Fields)
	if err != nil {
		return nil, fmt.Errorf("fields config: %w", err)
	}
	return schema, nil
}

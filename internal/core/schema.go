package core

import (
	"fmt"
	"regexp"
)

// KeyField is the primary key column of every reading.
const KeyField = "record_date"

var fieldNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Schema is a validated, ordered set of field definitions. Column
// positions are resolved once so consumers index slices instead of
// looking up names per row.
type Schema struct {
	fields  []FieldDefinition
	index   map[string]int
	numeric []string
	text    []string
}

// DefaultFields is the field set used when no schema file is configured.
func DefaultFields() []FieldDefinition {
	return []FieldDefinition{
		{Name: "gaz", Kind: KindNumeric},
		{Name: "elect_jour", Kind: KindNumeric},
		{Name: "elect_nuit", Kind: KindNumeric},
		{Name: "eau", Kind: KindNumeric},
		{Name: "option1", Kind: KindNumeric},
		{Name: "option2", Kind: KindNumeric},
		{Name: "comment", Kind: KindText},
	}
}

// DefaultSchema returns the schema built from DefaultFields.
func DefaultSchema() *Schema {
	s, err := NewSchema(DefaultFields())
	if err != nil {
		panic(err)
	}
	return s
}

// NewSchema validates definitions and resolves their positions. An empty
// kind defaults to numeric.
func NewSchema(defs []FieldDefinition) (*Schema, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: at least one field is required", ErrInvalidField)
	}

	s := &Schema{
		fields: make([]FieldDefinition, 0, len(defs)),
		index:  make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if d.Kind == "" {
			d.Kind = KindNumeric
		}
		switch {
		case !fieldNamePattern.MatchString(d.Name):
			return nil, fmt.Errorf("%w: name %q must match %s", ErrInvalidField, d.Name, fieldNamePattern)
		case d.Name == KeyField:
			return nil, fmt.Errorf("%w: %q is reserved", ErrInvalidField, d.Name)
		case d.Kind != KindNumeric && d.Kind != KindText:
			return nil, fmt.Errorf("%w: field %q has unknown type %q", ErrInvalidField, d.Name, d.Kind)
		}
		if _, dup := s.index[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrInvalidField, d.Name)
		}

		s.index[d.Name] = len(s.fields)
		s.fields = append(s.fields, d)
		if d.Kind == KindNumeric {
			s.numeric = append(s.numeric, d.Name)
		} else {
			s.text = append(s.text, d.Name)
		}
	}
	return s, nil
}

// Fields returns the definitions in configured order.
func (s *Schema) Fields() []FieldDefinition {
	return append([]FieldDefinition(nil), s.fields...)
}

// Numeric returns the numeric field names in configured order.
func (s *Schema) Numeric() []string {
	return append([]string(nil), s.numeric...)
}

// Text returns the text field names in configured order.
func (s *Schema) Text() []string {
	return append([]string(nil), s.text...)
}

func (s *Schema) Lookup(name string) (FieldDefinition, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldDefinition{}, false
	}
	return s.fields[i], true
}

// IsNumeric reports whether name is a configured numeric field.
func (s *Schema) IsNumeric(name string) bool {
	f, ok := s.Lookup(name)
	return ok && f.Kind == KindNumeric
}

// Label returns the display label of a field, or the raw name when unknown.
func (s *Schema) Label(name string) string {
	if f, ok := s.Lookup(name); ok {
		return f.Label()
	}
	return name
}

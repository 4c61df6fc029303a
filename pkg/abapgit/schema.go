package abapgit

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

var (
	// ErrInvalidName indicates a schema or field name unusable as an XML tag.
	ErrInvalidName = errors.New("abapgit: invalid element name")
	// ErrDuplicateField indicates two fields of one schema share a name.
	ErrDuplicateField = errors.New("abapgit: duplicate field")
	// ErrUnsupportedType indicates a Go type that cannot be mapped to a field.
	ErrUnsupportedType = errors.New("abapgit: unsupported field type")
)

// FieldType is the declared type of a schema field.
type FieldType int

const (
	TypeString FieldType = iota
	TypeInt
	TypeBool
	// TypeStruct references a nested schema. Such fields can be declared but
	// the writer only emits flat records.
	TypeStruct
)

func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	case TypeStruct:
		return "struct"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// Field describes one named element of a record.
type Field struct {
	Name     string
	Type     FieldType
	Position int
	// Schema is set for TypeStruct fields.
	Schema *Schema
}

// Schema is an ordered, named list of fields. The field order is the order
// of declaration and is the order in which the writer emits elements.
// A Schema is immutable once built and may be shared freely.
type Schema struct {
	name   string
	fields []Field
	index  map[string]int
}

// NewSchema builds a schema named name from fields in the given order.
// Field positions are assigned from that order.
func NewSchema(name string, fields ...Field) (*Schema, error) {
	if !isElementName(name) {
		return nil, fmt.Errorf("%w: schema %q", ErrInvalidName, name)
	}
	s := &Schema{
		name:   name,
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if !isElementName(f.Name) {
			return nil, fmt.Errorf("%w: field %q of %s", ErrInvalidName, f.Name, name)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateField, name, f.Name)
		}
		if f.Type == TypeStruct && f.Schema == nil {
			return nil, fmt.Errorf("%w: struct field %s.%s without schema", ErrUnsupportedType, name, f.Name)
		}
		f.Position = i
		s.fields[i] = f
		s.index[f.Name] = i
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error.
func MustSchema(name string, fields ...Field) *Schema {
	s, err := NewSchema(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the element name of records of this schema.
func (s *Schema) Name() string { return s.name }

// Fields returns a copy of the fields in declared order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field returns the field called name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// compiled binds a schema built from a Go struct to the struct field
// indexes backing each schema field.
type compiled struct {
	schema  *Schema
	indexes [][]int
}

var compiledSchemas sync.Map // reflect.Type -> *compiled

var (
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	stringerType      = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
)

// SchemaOf compiles the schema of the struct type of v (a struct or a
// pointer to one).
//
// The schema name is the type name unless a blank field carries an abap
// tag (`_ struct{} abap:"NAME"`). Exported fields become schema fields in
// declaration order; the abap tag overrides the element name and "-" skips
// the field.
func SchemaOf(v any) (*Schema, error) {
	c, err := compile(reflect.TypeOf(v))
	if err != nil {
		return nil, err
	}
	return c.schema, nil
}

func compile(t reflect.Type) (*compiled, error) {
	return compileType(t, map[reflect.Type]bool{})
}

// compileType compiles t; visiting holds the struct types on the current
// path so that a type reaching itself is rejected instead of recursing.
func compileType(t reflect.Type, visiting map[reflect.Type]bool) (*compiled, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil", ErrUnsupportedType)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrUnsupportedType, t)
	}
	if c, ok := compiledSchemas.Load(t); ok {
		return c.(*compiled), nil
	}
	if visiting[t] {
		return nil, fmt.Errorf("%w: recursive struct %s", ErrUnsupportedType, t)
	}
	visiting[t] = true
	defer delete(visiting, t)

	name := t.Name()
	var (
		fields  []Field
		indexes [][]int
	)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("abap")
		if sf.Name == "_" {
			if tag != "" {
				name = tag
			}
			continue
		}
		if !sf.IsExported() || tag == "-" {
			continue
		}
		f := Field{Name: sf.Name}
		if tag != "" {
			f.Name = tag
		}
		ft, nested, err := fieldTypeOf(sf.Type, visiting)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t, sf.Name, err)
		}
		f.Type = ft
		f.Schema = nested
		fields = append(fields, f)
		indexes = append(indexes, sf.Index)
	}

	schema, err := NewSchema(name, fields...)
	if err != nil {
		return nil, err
	}
	c, _ := compiledSchemas.LoadOrStore(t, &compiled{schema: schema, indexes: indexes})
	return c.(*compiled), nil
}

func fieldTypeOf(t reflect.Type, visiting map[reflect.Type]bool) (FieldType, *Schema, error) {
	if t.Implements(textMarshalerType) || t.Implements(stringerType) {
		return TypeString, nil, nil
	}
	switch t.Kind() {
	case reflect.String:
		return TypeString, nil, nil
	case reflect.Bool:
		return TypeBool, nil, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInt, nil, nil
	case reflect.Struct, reflect.Pointer:
		c, err := compileType(t, visiting)
		if err != nil {
			return 0, nil, err
		}
		return TypeStruct, c.schema, nil
	default:
		return 0, nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
}

// isElementName accepts the subset of XML names used by ABAP structures:
// a letter or underscore followed by letters, digits, '_', '-' or '.'.
func isElementName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case i > 0 && (r == '-' || r == '.' || r >= '0' && r <= '9'):
		default:
			return false
		}
	}
	return true
}

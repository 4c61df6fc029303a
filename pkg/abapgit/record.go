package abapgit

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

var (
	// ErrUnknownField indicates a value for a field the schema does not declare.
	ErrUnknownField = errors.New("abapgit: unknown field")
	// ErrTypeMismatch indicates a value incompatible with its declared field type.
	ErrTypeMismatch = errors.New("abapgit: value does not match field type")
	// ErrNestedRecord indicates a nested structure value; only flat records
	// are serialized.
	ErrNestedRecord = errors.New("abapgit: nested records are not supported")
	// ErrNoSchema indicates a zero Record.
	ErrNoSchema = errors.New("abapgit: record without schema")
)

// ABAP flag values.
const (
	abapTrue  = "X"
	abapFalse = ""
)

// Record is one value per field of a schema, addressed by field name.
type Record struct {
	schema *Schema
	values map[string]any
}

// NewRecord binds values to schema. Fields without a value are written as
// empty elements.
func NewRecord(schema *Schema, values map[string]any) (Record, error) {
	if schema == nil {
		return Record{}, ErrNoSchema
	}
	r := Record{schema: schema, values: make(map[string]any, len(values))}
	for name, v := range values {
		f, ok := schema.Field(name)
		if !ok {
			return Record{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, schema.name, name)
		}
		if err := checkValue(f, v); err != nil {
			return Record{}, fmt.Errorf("%s.%s: %w", schema.name, name, err)
		}
		r.values[name] = v
	}
	return r, nil
}

// ParseRecord binds element texts to schema, converting them the way Decode
// does: ints in decimal, bools as "X" or empty.
func ParseRecord(schema *Schema, texts map[string]string) (Record, error) {
	if schema == nil {
		return Record{}, ErrNoSchema
	}
	values := make(map[string]any, len(texts))
	for name, s := range texts {
		f, ok := schema.Field(name)
		if !ok {
			return Record{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, schema.name, name)
		}
		v, err := parseValue(f, s)
		if err != nil {
			return Record{}, fmt.Errorf("%s.%s: %w", schema.name, name, err)
		}
		values[name] = v
	}
	return Record{schema: schema, values: values}, nil
}

// MustRecord is like NewRecord but panics on error.
func MustRecord(schema *Schema, values map[string]any) Record {
	r, err := NewRecord(schema, values)
	if err != nil {
		panic(err)
	}
	return r
}

// RecordOf builds a record from a struct value using SchemaOf.
func RecordOf(v any) (Record, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Record{}, fmt.Errorf("%w: nil %s", ErrUnsupportedType, rv.Type())
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return Record{}, fmt.Errorf("%w: nil", ErrUnsupportedType)
	}
	c, err := compile(rv.Type())
	if err != nil {
		return Record{}, err
	}
	values := make(map[string]any, len(c.indexes))
	for i, f := range c.schema.fields {
		values[f.Name] = rv.FieldByIndex(c.indexes[i]).Interface()
	}
	return Record{schema: c.schema, values: values}, nil
}

// Schema returns the record's schema.
func (r Record) Schema() *Schema { return r.schema }

// Get returns the value stored for the field name.
func (r Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Decode stores the record into the struct pointed to by dst. The struct's
// schema must carry the same name as the record's.
func (r Record) Decode(dst any) error {
	if r.schema == nil {
		return ErrNoSchema
	}
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: decode target must be a non-nil pointer", ErrUnsupportedType)
	}
	c, err := compile(rv.Type())
	if err != nil {
		return err
	}
	if c.schema.name != r.schema.name {
		return fmt.Errorf("%w: record %s decoded into %s", ErrTypeMismatch, r.schema.name, c.schema.name)
	}
	elem := rv.Elem()
	for i, f := range c.schema.fields {
		v, ok := r.values[f.Name]
		if !ok || v == nil {
			continue
		}
		if err := assign(elem.FieldByIndex(c.indexes[i]), v); err != nil {
			return fmt.Errorf("%s.%s: %w", c.schema.name, f.Name, err)
		}
	}
	return nil
}

// text renders the value of f as element content.
func (r Record) text(f Field) (string, error) {
	v := r.values[f.Name]
	if v == nil {
		return "", nil
	}
	if f.Type == TypeStruct {
		return "", fmt.Errorf("%w: %s.%s", ErrNestedRecord, r.schema.name, f.Name)
	}
	return formatValue(v)
}

func formatValue(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		if x {
			return abapTrue, nil
		}
		return abapFalse, nil
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		if err != nil {
			return "", err
		}
		return string(b), nil
	case fmt.Stringer:
		return x.String(), nil
	case Record:
		return "", ErrNestedRecord
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return formatValue(rv.Bool())
	case reflect.Struct, reflect.Pointer:
		return "", ErrNestedRecord
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}

func checkValue(f Field, v any) error {
	if v == nil {
		return nil
	}
	var ok bool
	switch f.Type {
	case TypeString:
		switch v.(type) {
		case encoding.TextMarshaler, fmt.Stringer:
			ok = true
		default:
			ok = reflect.TypeOf(v).Kind() == reflect.String
		}
	case TypeInt:
		switch reflect.TypeOf(v).Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			ok = true
		}
	case TypeBool:
		ok = reflect.TypeOf(v).Kind() == reflect.Bool
	case TypeStruct:
		switch v.(type) {
		case Record:
			ok = true
		default:
			k := reflect.TypeOf(v).Kind()
			ok = k == reflect.Struct || k == reflect.Pointer
		}
	}
	if !ok {
		return fmt.Errorf("%w: %T for %s field", ErrTypeMismatch, v, f.Type)
	}
	return nil
}

// parseValue converts element text read back from a document.
func parseValue(f Field, s string) (any, error) {
	switch f.Type {
	case TypeString:
		return s, nil
	case TypeInt:
		if s == "" {
			return int64(0), nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q for int field", ErrTypeMismatch, s)
		}
		return n, nil
	case TypeBool:
		switch s {
		case abapTrue:
			return true, nil
		case abapFalse:
			return false, nil
		}
		return nil, fmt.Errorf("%w: %q for bool field", ErrTypeMismatch, s)
	default:
		return nil, ErrNestedRecord
	}
}

func assign(dst reflect.Value, v any) error {
	if dst.CanAddr() {
		if u, ok := dst.Addr().Interface().(encoding.TextUnmarshaler); ok {
			s, err := formatValue(v)
			if err != nil {
				return err
			}
			return u.UnmarshalText([]byte(s))
		}
	}
	src := reflect.ValueOf(v)
	switch dst.Kind() {
	case reflect.String:
		s, err := formatValue(v)
		if err != nil {
			return err
		}
		dst.SetString(s)
	case reflect.Bool:
		if src.Kind() != reflect.Bool {
			return fmt.Errorf("%w: %T into bool", ErrTypeMismatch, v)
		}
		dst.SetBool(src.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(src)
		if err != nil {
			return err
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("%w: %d overflows %s", ErrTypeMismatch, n, dst.Type())
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toInt64(src)
		if err != nil {
			return err
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return fmt.Errorf("%w: %d overflows %s", ErrTypeMismatch, n, dst.Type())
		}
		dst.SetUint(uint64(n))
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, dst.Type())
	}
	return nil
}

func toInt64(v reflect.Value) (int64, error) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint()), nil
	case reflect.String:
		n, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q for int field", ErrTypeMismatch, v.String())
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %s into int", ErrTypeMismatch, v.Type())
	}
}

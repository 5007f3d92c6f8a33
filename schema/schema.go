// Package schema declares per-tool field schemas and binds raw string maps
// into fully defaulted, type-correct tool states.
//
// A tool declares its fields once, at construction time:
//
//	sch, err := schema.New("base64-encoder",
//		schema.Input("text", ""),
//		schema.Bool("url_safe", false),
//		schema.Enum("mode", "encode", []string{"encode", "decode"}),
//	)
//
// Bind never fails: unknown keys are ignored and invalid values fall back to
// the field's default, so a malformed shared link degrades to defaults
// instead of breaking the page.
package schema

import (
	"fmt"
	"strconv"
)

// Type is the value type of a schema field.
type Type int

const (
	TypeString Type = iota
	TypeBool
	TypeNumber
	TypeEnum
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeNumber:
		return "number"
	case TypeEnum:
		return "enum"
	}
	return "unknown"
}

// Field is one declared field of a tool schema.
//
// Input marks free-text input fields: their history commits are debounced
// and they participate in the append-vs-amend decision as inputs. All other
// fields are discrete parameters.
type Field struct {
	Name     string
	Type     Type
	Default  any
	Values   []string // enum members, TypeEnum only
	Input    bool
	Side     string // optional "left"/"right" discriminator, input fields only
	Validate func(string) error
}

// FieldOption customises a Field at declaration time.
type FieldOption func(*Field)

// WithSide tags an input field with a side discriminator ("left"/"right").
func WithSide(side string) FieldOption {
	return func(f *Field) { f.Side = side }
}

// WithValidator attaches a validator run against the raw string value during
// Bind. A validation failure falls back to the default, it never propagates.
func WithValidator(fn func(string) error) FieldOption {
	return func(f *Field) { f.Validate = fn }
}

// Input declares a free-text input field.
func Input(name, def string, opts ...FieldOption) Field {
	f := Field{Name: name, Type: TypeString, Default: def, Input: true}
	for _, o := range opts {
		o(&f)
	}
	return f
}

// String declares a string parameter field.
func String(name, def string, opts ...FieldOption) Field {
	f := Field{Name: name, Type: TypeString, Default: def}
	for _, o := range opts {
		o(&f)
	}
	return f
}

// Bool declares a boolean parameter field.
func Bool(name string, def bool, opts ...FieldOption) Field {
	f := Field{Name: name, Type: TypeBool, Default: def}
	for _, o := range opts {
		o(&f)
	}
	return f
}

// Number declares a numeric parameter field.
func Number(name string, def float64, opts ...FieldOption) Field {
	f := Field{Name: name, Type: TypeNumber, Default: def}
	for _, o := range opts {
		o(&f)
	}
	return f
}

// Enum declares a parameter field restricted to the given members.
func Enum(name, def string, values []string, opts ...FieldOption) Field {
	f := Field{Name: name, Type: TypeEnum, Default: def, Values: values}
	for _, o := range opts {
		o(&f)
	}
	return f
}

// Schema is a checked, ordered field list for one tool.
type Schema struct {
	toolID string
	fields []Field
	byName map[string]int
}

// New validates the field declarations and builds a Schema.
// Declarations are checked here, not at each Bind call.
func New(toolID string, fields ...Field) (*Schema, error) {
	if toolID == "" {
		return nil, fmt.Errorf("schema: empty tool id")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("schema %s: no fields declared", toolID)
	}

	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("schema %s: field %d has empty name", toolID, i)
		}
		if _, dup := byName[f.Name]; dup {
			return nil, fmt.Errorf("schema %s: duplicate field %q", toolID, f.Name)
		}
		if f.Side != "" && !f.Input {
			return nil, fmt.Errorf("schema %s: field %q: side on non-input field", toolID, f.Name)
		}
		if f.Type == TypeEnum {
			if len(f.Values) == 0 {
				return nil, fmt.Errorf("schema %s: enum field %q has no members", toolID, f.Name)
			}
			def, ok := f.Default.(string)
			if !ok || !contains(f.Values, def) {
				return nil, fmt.Errorf("schema %s: enum field %q: default %v not a member", toolID, f.Name, f.Default)
			}
		}
		if err := checkDefault(f); err != nil {
			return nil, fmt.Errorf("schema %s: %w", toolID, err)
		}
		byName[f.Name] = i
	}

	return &Schema{toolID: toolID, fields: fields, byName: byName}, nil
}

// MustNew is New for package-level tool declarations; panics on a bad schema.
func MustNew(toolID string, fields ...Field) *Schema {
	s, err := New(toolID, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func checkDefault(f Field) error {
	switch f.Type {
	case TypeString, TypeEnum:
		if _, ok := f.Default.(string); !ok {
			return fmt.Errorf("field %q: default must be string, got %T", f.Name, f.Default)
		}
	case TypeBool:
		if _, ok := f.Default.(bool); !ok {
			return fmt.Errorf("field %q: default must be bool, got %T", f.Name, f.Default)
		}
	case TypeNumber:
		if _, ok := f.Default.(float64); !ok {
			return fmt.Errorf("field %q: default must be float64, got %T", f.Name, f.Default)
		}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// ToolID returns the tool identifier this schema belongs to.
func (s *Schema) ToolID() string { return s.toolID }

// Fields returns the declared fields in declaration order.
func (s *Schema) Fields() []Field { return s.fields }

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Has reports whether name is a declared field.
func (s *Schema) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// State is the fully defaulted value set of one tool. Every declared field
// always has a defined value of its declared type.
type State map[string]any

// String returns the field's value as a string (zero value if absent).
func (st State) String(name string) string {
	v, _ := st[name].(string)
	return v
}

// Bool returns the field's value as a bool.
func (st State) Bool(name string) bool {
	v, _ := st[name].(bool)
	return v
}

// Number returns the field's value as a float64.
func (st State) Number(name string) float64 {
	v, _ := st[name].(float64)
	return v
}

// Clone returns a shallow copy of the state.
func (st State) Clone() State {
	out := make(State, len(st))
	for k, v := range st {
		out[k] = v
	}
	return out
}

// Defaults returns a State holding every field's declared default.
func (s *Schema) Defaults() State {
	st := make(State, len(s.fields))
	for _, f := range s.fields {
		st[f.Name] = f.Default
	}
	return st
}

// Bind coerces a raw string-keyed map into a fully defaulted State.
// Unknown keys are ignored. Values that fail to parse or validate fall back
// to the field's default rather than failing the whole bind.
func (s *Schema) Bind(raw map[string]string) State {
	st := s.Defaults()
	for _, f := range s.fields {
		rv, ok := raw[f.Name]
		if !ok {
			continue
		}
		if f.Validate != nil && f.Validate(rv) != nil {
			continue
		}
		v, err := decodeValue(f, rv)
		if err != nil {
			continue
		}
		st[f.Name] = v
	}
	return st
}

// Coerce converts an arbitrary value into the field's declared type.
// Used by callers that set typed values programmatically.
func (s *Schema) Coerce(name string, v any) (any, error) {
	f, ok := s.Field(name)
	if !ok {
		return nil, fmt.Errorf("schema %s: unknown field %q", s.toolID, name)
	}
	switch f.Type {
	case TypeString:
		if sv, ok := v.(string); ok {
			return sv, nil
		}
	case TypeBool:
		if bv, ok := v.(bool); ok {
			return bv, nil
		}
	case TypeNumber:
		switch nv := v.(type) {
		case float64:
			return nv, nil
		case int:
			return float64(nv), nil
		case int64:
			return float64(nv), nil
		}
	case TypeEnum:
		if sv, ok := v.(string); ok {
			if !contains(f.Values, sv) {
				return nil, fmt.Errorf("schema %s: field %q: %q not a member", s.toolID, name, sv)
			}
			return sv, nil
		}
	}
	return nil, fmt.Errorf("schema %s: field %q: cannot coerce %T to %s", s.toolID, name, v, f.Type)
}

// Encode serializes a field value to its wire string form.
func (s *Schema) Encode(name string, v any) (string, error) {
	f, ok := s.Field(name)
	if !ok {
		return "", fmt.Errorf("schema %s: unknown field %q", s.toolID, name)
	}
	return encodeValue(f, v)
}

func encodeValue(f Field, v any) (string, error) {
	switch f.Type {
	case TypeString, TypeEnum:
		sv, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("field %q: expected string, got %T", f.Name, v)
		}
		return sv, nil
	case TypeBool:
		bv, ok := v.(bool)
		if !ok {
			return "", fmt.Errorf("field %q: expected bool, got %T", f.Name, v)
		}
		return strconv.FormatBool(bv), nil
	case TypeNumber:
		nv, ok := v.(float64)
		if !ok {
			return "", fmt.Errorf("field %q: expected float64, got %T", f.Name, v)
		}
		return strconv.FormatFloat(nv, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("field %q: unknown type", f.Name)
}

func decodeValue(f Field, raw string) (any, error) {
	switch f.Type {
	case TypeString:
		return raw, nil
	case TypeBool:
		return strconv.ParseBool(raw)
	case TypeNumber:
		return strconv.ParseFloat(raw, 64)
	case TypeEnum:
		if !contains(f.Values, raw) {
			return nil, fmt.Errorf("field %q: %q not a member", f.Name, raw)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("field %q: unknown type", f.Name)
}

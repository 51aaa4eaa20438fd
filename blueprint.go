package augment

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-augment/layering"
)

// FieldType is the closed set of declared field types. Unknown types resolve
// to their raw value.
type FieldType int

const (
	FieldTypeUnknown FieldType = iota
	FieldTypeText
	FieldTypeTextarea
	FieldTypeToggle
	FieldTypeInteger
	FieldTypeFloat
	FieldTypeDate
	FieldTypeList
	FieldTypeEntries
	FieldTypeUsers
	FieldTypeFormula
)

var fieldTypeNames = [...]string{
	FieldTypeUnknown:  "unknown",
	FieldTypeText:     "text",
	FieldTypeTextarea: "textarea",
	FieldTypeToggle:   "toggle",
	FieldTypeInteger:  "integer",
	FieldTypeFloat:    "float",
	FieldTypeDate:     "date",
	FieldTypeList:     "list",
	FieldTypeEntries:  "entries",
	FieldTypeUsers:    "users",
	FieldTypeFormula:  "formula",
}

var fieldTypeAliases = map[string]FieldType{
	"markdown": FieldTypeTextarea,
	"bool":     FieldTypeToggle,
	"boolean":  FieldTypeToggle,
	"int":      FieldTypeInteger,
	"number":   FieldTypeFloat,
	"entry":    FieldTypeEntries,
	"user":     FieldTypeUsers,
}

func (t FieldType) String() string {
	if t < 0 || int(t) >= len(fieldTypeNames) {
		return fieldTypeNames[FieldTypeUnknown]
	}
	return fieldTypeNames[t]
}

// ParseFieldType maps a declared type name to a FieldType. Names outside the
// known set map to FieldTypeUnknown.
func ParseFieldType(name string) FieldType {
	name = strings.ToLower(strings.TrimSpace(name))
	for idx, candidate := range fieldTypeNames {
		if candidate == name {
			return FieldType(idx)
		}
	}
	if alias, ok := fieldTypeAliases[name]; ok {
		return alias
	}
	return FieldTypeUnknown
}

func (t FieldType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *FieldType) UnmarshalText(text []byte) error {
	*t = ParseFieldType(string(text))
	return nil
}

// FieldDeclaration describes one field of a blueprint.
type FieldDeclaration struct {
	Handle  string         `json:"handle"`
	Type    FieldType      `json:"type"`
	Default any            `json:"default,omitempty"`
	Config  map[string]any `json:"config,omitempty"`
}

// DefaultValue reports the schema default. A nil default is treated as none.
func (f FieldDeclaration) DefaultValue() (any, bool) {
	return f.Default, f.Default != nil
}

// ConfigString returns a string setting, or "" when absent.
func (f FieldDeclaration) ConfigString(key string) string {
	value, ok := f.Config[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(value)
}

// ConfigInt returns an integer setting.
func (f FieldDeclaration) ConfigInt(key string) (int, bool) {
	switch v := f.Config[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	default:
		return 0, false
	}
}

func (f FieldDeclaration) clone() FieldDeclaration {
	f.Default = layering.Clone(f.Default)
	f.Config = layering.Clone(f.Config)
	return f
}

// Blueprint is an ordered set of uniquely named field declarations.
type Blueprint struct {
	Handle string
	Title  string

	fields map[string]FieldDeclaration
	order  []string
}

// NewBlueprint validates and stores fields in declaration order.
func NewBlueprint(handle string, fields ...FieldDeclaration) (*Blueprint, error) {
	bp := &Blueprint{
		Handle: strings.TrimSpace(handle),
		fields: make(map[string]FieldDeclaration, len(fields)),
		order:  make([]string, 0, len(fields)),
	}
	for _, field := range fields {
		field.Handle = strings.TrimSpace(field.Handle)
		if field.Handle == "" {
			return nil, fmt.Errorf("blueprint %q: %w", bp.Handle, ErrFieldHandleRequired)
		}
		if _, exists := bp.fields[field.Handle]; exists {
			return nil, fmt.Errorf("blueprint %q: %w: %q", bp.Handle, ErrDuplicateField, field.Handle)
		}
		bp.fields[field.Handle] = field.clone()
		bp.order = append(bp.order, field.Handle)
	}
	return bp, nil
}

// MustBlueprint is NewBlueprint for static declarations.
func MustBlueprint(handle string, fields ...FieldDeclaration) *Blueprint {
	bp, err := NewBlueprint(handle, fields...)
	if err != nil {
		panic(err)
	}
	return bp
}

// Field returns the declaration for handle.
func (b *Blueprint) Field(handle string) (FieldDeclaration, bool) {
	if b == nil {
		return FieldDeclaration{}, false
	}
	field, ok := b.fields[handle]
	if !ok {
		return FieldDeclaration{}, false
	}
	return field.clone(), true
}

// Fields returns the declarations in declaration order.
func (b *Blueprint) Fields() []FieldDeclaration {
	if b == nil {
		return nil
	}
	out := make([]FieldDeclaration, 0, len(b.order))
	for _, handle := range b.order {
		out = append(out, b.fields[handle].clone())
	}
	return out
}

// Handles returns the field names in declaration order.
func (b *Blueprint) Handles() []string {
	if b == nil {
		return nil
	}
	return append([]string(nil), b.order...)
}

// Defaults collects the non-nil schema defaults.
func (b *Blueprint) Defaults() map[string]any {
	out := map[string]any{}
	if b == nil {
		return out
	}
	for _, handle := range b.order {
		if value, ok := b.fields[handle].DefaultValue(); ok {
			out[handle] = layering.Clone(value)
		}
	}
	return out
}

// SchemaRegistry resolves a blueprint handle to its field declarations.
type SchemaRegistry interface {
	Blueprint(handle string) (*Blueprint, bool)
}

// MapRegistry is an in-memory SchemaRegistry safe for concurrent use.
type MapRegistry struct {
	mu         sync.RWMutex
	blueprints map[string]*Blueprint
}

// NewMapRegistry registers the supplied blueprints.
func NewMapRegistry(blueprints ...*Blueprint) (*MapRegistry, error) {
	registry := &MapRegistry{blueprints: make(map[string]*Blueprint, len(blueprints))}
	for _, bp := range blueprints {
		if err := registry.Register(bp); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Register adds bp. Handles must be unique.
func (r *MapRegistry) Register(bp *Blueprint) error {
	if bp == nil || bp.Handle == "" {
		return fmt.Errorf("%w: blueprint handle must be provided", ErrConfiguration)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.blueprints == nil {
		r.blueprints = map[string]*Blueprint{}
	}
	if _, exists := r.blueprints[bp.Handle]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateBlueprint, bp.Handle)
	}
	r.blueprints[bp.Handle] = bp
	return nil
}

func (r *MapRegistry) Blueprint(handle string) (*Blueprint, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	bp, ok := r.blueprints[handle]
	return bp, ok
}

// Handles lists registered blueprint handles in sorted order.
func (r *MapRegistry) Handles() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.blueprints))
	for handle := range r.blueprints {
		out = append(out, handle)
	}
	sort.Strings(out)
	return out
}

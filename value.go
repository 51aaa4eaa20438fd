package augment

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

// Value is a resolved raw value together with its field declaration and the
// record it was resolved for. The typed form is produced on demand by Augment
// and memoized.
type Value struct {
	raw      any
	field    *FieldDeclaration
	record   *Record
	resolver *Resolver

	once      sync.Once
	augmented any
	err       error
}

// NewValue wraps raw. field may be nil for keys without a declaration.
func NewValue(raw any, field *FieldDeclaration, record *Record) *Value {
	v := &Value{raw: raw, record: record}
	if field != nil {
		declared := field.clone()
		v.field = &declared
	}
	return v
}

func (r *Resolver) newValue(raw any, field *FieldDeclaration, record *Record) *Value {
	v := NewValue(raw, field, record)
	v.resolver = r
	return v
}

// Raw returns the stored form of the value.
func (v *Value) Raw() any {
	if v == nil {
		return nil
	}
	return v.raw
}

// IsNull reports whether the raw value is nil.
func (v *Value) IsNull() bool {
	return v == nil || v.raw == nil
}

// Field returns the declaration the value was resolved against.
func (v *Value) Field() (FieldDeclaration, bool) {
	if v == nil || v.field == nil {
		return FieldDeclaration{}, false
	}
	return v.field.clone(), true
}

// Type returns the declared field type, FieldTypeUnknown when undeclared.
func (v *Value) Type() FieldType {
	if v == nil || v.field == nil {
		return FieldTypeUnknown
	}
	return v.field.Type
}

// Record returns the owning record.
func (v *Value) Record() *Record {
	if v == nil {
		return nil
	}
	return v.record
}

// Augment converts the raw value according to its field type. The first
// call does the work; later calls return the memoized result, whatever ctx
// they pass. Undeclared values augment to their raw form.
func (v *Value) Augment(ctx context.Context) (any, error) {
	if v == nil {
		return nil, nil
	}
	if v.field == nil {
		return v.raw, nil
	}
	v.once.Do(func() {
		v.augmented, v.err = augmentValue(ctx, v)
	})
	return v.augmented, v.err
}

// Equal compares raw values.
func (v *Value) Equal(other *Value) bool {
	if v == nil || other == nil {
		return v.IsNull() && other.IsNull()
	}
	return reflect.DeepEqual(v.raw, other.raw)
}

// String renders the raw value; nil renders empty.
func (v *Value) String() string {
	if v.IsNull() {
		return ""
	}
	if s, ok := v.raw.(string); ok {
		return s
	}
	return fmt.Sprint(v.raw)
}

// MarshalJSON encodes the raw value.
func (v *Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Raw())
}

// Values maps keys to resolved values.
type Values map[string]*Value

// Raw returns the raw form of every value.
func (vs Values) Raw() map[string]any {
	out := make(map[string]any, len(vs))
	for key, value := range vs {
		out[key] = value.Raw()
	}
	return out
}

// Augment converts every value, stopping at the first error.
func (vs Values) Augment(ctx context.Context) (map[string]any, error) {
	out := make(map[string]any, len(vs))
	for key, value := range vs {
		augmented, err := value.Augment(ctx)
		if err != nil {
			return nil, fmt.Errorf("augment %q: %w", key, err)
		}
		out[key] = augmented
	}
	return out, nil
}

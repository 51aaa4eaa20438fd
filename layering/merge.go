package layering

import "reflect"

// MergeLayers composes flat snapshots ordered from strongest to weakest. A key
// present in a stronger snapshot wins wholesale, even when it holds nil, so an
// explicit null is never filled from a weaker layer. Values are deep copied.
func MergeLayers[M ~map[string]V, V any](layers ...M) M {
	if len(layers) == 0 {
		return nil
	}

	size := 0
	for _, layer := range layers {
		size += len(layer)
	}
	merged := make(M, size)
	for i := len(layers) - 1; i >= 0; i-- {
		for key, value := range layers[i] {
			merged[key] = Clone(value)
		}
	}
	return merged
}

// Lookup returns the value for key from the strongest snapshot that declares
// it, along with that snapshot's index. The index is -1 when no layer has key.
func Lookup[M ~map[string]V, V any](key string, layers ...M) (V, int, bool) {
	for i, layer := range layers {
		if value, ok := layer[key]; ok {
			return value, i, true
		}
	}
	var zero V
	return zero, -1, false
}

// Clone returns a deep copy of value. Maps, slices, arrays, pointers and
// structs are copied recursively; unexported struct fields are copied
// shallowly so values such as time.Time survive intact.
func Clone[T any](value T) T {
	rv := reflect.ValueOf(&value).Elem()
	cloned := cloneValue(rv)
	if !cloned.IsValid() {
		var zero T
		return zero
	}
	out := reflect.New(rv.Type()).Elem()
	out.Set(cloned)
	result, _ := out.Interface().(T)
	return result
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(cloneValue(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneValue(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		wrapped := reflect.New(v.Type()).Elem()
		wrapped.Set(elem)
		return wrapped
	case reflect.Struct:
		clone := reflect.New(v.Type()).Elem()
		clone.Set(v)
		for i := 0; i < v.NumField(); i++ {
			field := clone.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(cloneValue(v.Field(i)))
		}
		return clone
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	default:
		clone := reflect.New(v.Type()).Elem()
		clone.Set(v)
		return clone
	}
}

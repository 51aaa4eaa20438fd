package augment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

func augmentValue(ctx context.Context, v *Value) (any, error) {
	switch v.field.Type {
	case FieldTypeText, FieldTypeTextarea:
		return augmentString(v.raw), nil
	case FieldTypeToggle:
		return augmentBool(v.raw), nil
	case FieldTypeInteger:
		return augmentInteger(v.field.Handle, v.raw)
	case FieldTypeFloat:
		return augmentFloat(v.field.Handle, v.raw)
	case FieldTypeDate:
		return augmentDate(v.field.Handle, v.raw)
	case FieldTypeList:
		return normalizeSequence(v.raw), nil
	case FieldTypeEntries:
		return v.resolver.augmentEntries(ctx, v)
	case FieldTypeUsers:
		return v.resolver.augmentUsers(ctx, v)
	case FieldTypeFormula:
		return v.resolver.evaluateFormula(ctx, v)
	default:
		return v.raw, nil
	}
}

func augmentString(raw any) any {
	switch value := raw.(type) {
	case nil:
		return nil
	case string:
		return value
	case []byte:
		return string(value)
	default:
		return fmt.Sprint(value)
	}
}

func augmentBool(raw any) bool {
	switch value := raw.(type) {
	case nil:
		return false
	case bool:
		return value
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		return err == nil && parsed
	case float64:
		return value != 0
	case int:
		return value != 0
	case int64:
		return value != 0
	default:
		return true
	}
}

func augmentInteger(handle string, raw any) (any, error) {
	switch value := raw.(type) {
	case nil:
		return nil, nil
	case int:
		return value, nil
	case int64:
		return int(value), nil
	case int32:
		return int(value), nil
	case float64:
		if math.Trunc(value) != value {
			return nil, fmt.Errorf("augment: field %q: %v is not an integer", handle, value)
		}
		return int(value), nil
	case json.Number:
		n, err := value.Int64()
		if err != nil {
			return nil, fmt.Errorf("augment: field %q: %w", handle, err)
		}
		return int(n), nil
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return nil, fmt.Errorf("augment: field %q: %w", handle, err)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("augment: field %q: cannot convert %T to integer", handle, raw)
	}
}

func augmentFloat(handle string, raw any) (any, error) {
	switch value := raw.(type) {
	case nil:
		return nil, nil
	case float64:
		return value, nil
	case float32:
		return float64(value), nil
	case int:
		return float64(value), nil
	case int64:
		return float64(value), nil
	case json.Number:
		f, err := value.Float64()
		if err != nil {
			return nil, fmt.Errorf("augment: field %q: %w", handle, err)
		}
		return f, nil
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("augment: field %q: %w", handle, err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("augment: field %q: cannot convert %T to float", handle, raw)
	}
}

func augmentDate(handle string, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	ts, ok := toTime(raw)
	if !ok {
		return nil, fmt.Errorf("augment: field %q: cannot convert %v to date", handle, raw)
	}
	return ts, nil
}

// normalizeSequence turns raw into a list: nil becomes empty, scalars become
// single element lists, slices are copied element-wise.
func normalizeSequence(raw any) []any {
	switch value := raw.(type) {
	case nil:
		return []any{}
	case []any:
		return append([]any{}, value...)
	case []string:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = item
		}
		return out
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{raw}
}

func referenceIDs(raw any) []string {
	items := normalizeSequence(raw)
	ids := make([]string, 0, len(items))
	for _, item := range items {
		switch id := item.(type) {
		case string:
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		case nil:
		default:
			ids = append(ids, fmt.Sprint(id))
		}
	}
	return ids
}

func singleReference(field *FieldDeclaration) bool {
	maxItems, ok := field.ConfigInt("max_items")
	return ok && maxItems == 1
}

// augmentEntries loads referenced records. Missing records are skipped.
func (r *Resolver) augmentEntries(ctx context.Context, v *Value) (any, error) {
	if r == nil || r.cfg.store == nil {
		return v.raw, nil
	}
	ids := referenceIDs(v.raw)
	records := make([]*Record, 0, len(ids))
	for _, id := range ids {
		record, found, err := r.cfg.store.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if found {
			records = append(records, record)
		}
	}
	if singleReference(v.field) {
		if len(records) == 0 {
			return nil, nil
		}
		return records[0], nil
	}
	return records, nil
}

// augmentUsers resolves referenced users. Unknown users are skipped.
func (r *Resolver) augmentUsers(ctx context.Context, v *Value) (any, error) {
	if r == nil || r.cfg.users == nil {
		return v.raw, nil
	}
	ids := referenceIDs(v.raw)
	users := make([]*UserRef, 0, len(ids))
	for _, id := range ids {
		user, found, err := r.cfg.users.Find(ctx, id)
		if err != nil {
			return nil, err
		}
		if found {
			users = append(users, user)
		}
	}
	if singleReference(v.field) {
		if len(users) == 0 {
			return nil, nil
		}
		return users[0], nil
	}
	return users, nil
}

package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Source identifies one item inside a data document.
type Source struct {
	Path  string
	Kind  string
	Index int
}

func (s Source) String() string {
	label := s.Kind
	if label == "" {
		label = "item"
	}
	label = fmt.Sprintf("%s[%d]", label, s.Index)
	if s.Path != "" {
		label += " in " + s.Path
	}
	return label
}

// PreHook lets callers normalise the payload before decoding.
type PreHook func(Source, map[string]any) (map[string]any, error)

// PostHook lets callers adjust or validate the decoded value.
type PostHook[T any] func(Source, *T) error

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts loosely typed document items into T through T's JSON
// decoding.
type Decoder[T any] struct {
	preHooks     []PreHook
	postHooks    []PostHook[T]
	configureDec []func(*json.Decoder)
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithDisallowUnknownFields rejects payload keys T does not declare.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.configureDec = append(d.configureDec, func(dec *json.Decoder) {
			dec.DisallowUnknownFields()
		})
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// RequireKeys returns a PreHook that rejects payloads missing any of keys or
// holding an empty string for one.
func RequireKeys(keys ...string) PreHook {
	return func(src Source, payload map[string]any) (map[string]any, error) {
		for _, key := range keys {
			value, ok := payload[key]
			if !ok || value == nil {
				return nil, fmt.Errorf("missing %q", key)
			}
			if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
				return nil, fmt.Errorf("empty %q", key)
			}
		}
		return payload, nil
	}
}

// Decode converts payload into T applying the configured hooks. payload is
// never modified.
func (d *Decoder[T]) Decode(src Source, payload map[string]any) (T, error) {
	var zero T

	if payload == nil {
		return zero, fmt.Errorf("hydrate: %s: payload is nil", src)
	}

	current, err := clonePayload(payload)
	if err != nil {
		return zero, fmt.Errorf("hydrate: %s: clone payload: %w", src, err)
	}

	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(src, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: %s: %w", src, err)
		}
		if next != nil {
			current = next
		}
	}

	buffer, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("hydrate: %s: marshal payload: %w", src, err)
	}
	decoder := json.NewDecoder(bytes.NewReader(buffer))
	for _, configure := range d.configureDec {
		configure(decoder)
	}
	var result T
	if err := decoder.Decode(&result); err != nil {
		return zero, fmt.Errorf("hydrate: %s: decode: %w", src, err)
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(src, &result); err != nil {
			return zero, fmt.Errorf("hydrate: %s: %w", src, err)
		}
	}

	return result, nil
}

// DecodeList decodes every item of a document list. Items must be mappings.
func (d *Decoder[T]) DecodeList(src Source, items []any) ([]T, error) {
	out := make([]T, 0, len(items))
	for i, item := range items {
		itemSrc := src
		itemSrc.Index = i
		payload, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("hydrate: %s: expected a mapping, got %T", itemSrc, item)
		}
		value, err := d.Decode(itemSrc, payload)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}

func clonePayload(payload map[string]any) (map[string]any, error) {
	buffer, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(buffer, &out); err != nil {
		return nil, err
	}
	return out, nil
}

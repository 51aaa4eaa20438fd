package augment

import (
	"fmt"
	"strings"
	"time"
)

// BuiltinFunctions returns the helpers every formula can call.
func BuiltinFunctions() *FunctionRegistry {
	registry := NewFunctionRegistry()
	_ = registry.Register("coalesce", coalesceFunction)
	_ = registry.Register("join", joinFunction)
	_ = registry.Register("days_since", daysSinceFunction)
	return registry
}

// coalesceFunction returns the first argument that is neither nil nor "".
func coalesceFunction(args ...any) (any, error) {
	for _, arg := range args {
		if arg == nil {
			continue
		}
		if s, ok := arg.(string); ok && s == "" {
			continue
		}
		return arg, nil
	}
	return nil, nil
}

// joinFunction joins a list with an optional separator (default ", ").
func joinFunction(args ...any) (any, error) {
	if len(args) == 0 || len(args) > 2 {
		return nil, fmt.Errorf("join expects a list and an optional separator")
	}
	separator := ", "
	if len(args) == 2 {
		s, ok := args[1].(string)
		if !ok {
			return nil, fmt.Errorf("join separator must be a string")
		}
		separator = s
	}
	items := normalizeSequence(args[0])
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		parts = append(parts, fmt.Sprint(item))
	}
	return strings.Join(parts, separator), nil
}

// daysSinceFunction returns whole days between a date and now, or the
// optional second date.
func daysSinceFunction(args ...any) (any, error) {
	if len(args) == 0 || len(args) > 2 {
		return nil, fmt.Errorf("days_since expects a date and an optional reference date")
	}
	from, ok := toTime(args[0])
	if !ok {
		return nil, fmt.Errorf("days_since: cannot read date %v", args[0])
	}
	until := time.Now().UTC()
	if len(args) == 2 {
		if until, ok = toTime(args[1]); !ok {
			return nil, fmt.Errorf("days_since: cannot read date %v", args[1])
		}
	}
	return int(until.Sub(from).Hours() / 24), nil
}

package augment

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02-150405",
	"2006-01-02-1504",
	"2006-01-02",
}

// ParseDate parses the date forms accepted in stored data: RFC 3339, plain
// dates, and the dash separated "2006-01-02-1504" form used in file names.
// Results are in UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("augment: unrecognised date %q", value)
}

// toTime converts stored date representations. Numbers and numeric strings
// are unix seconds.
func toTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return v.UTC(), true
	case int:
		return time.Unix(int64(v), 0).UTC(), true
	case int64:
		return time.Unix(v, 0).UTC(), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return time.Time{}, false
		}
		return time.Unix(int64(v), 0).UTC(), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(n, 0).UTC(), true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return time.Time{}, false
		}
		if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return time.Unix(n, 0).UTC(), true
		}
		parsed, err := ParseDate(trimmed)
		return parsed, err == nil
	default:
		return time.Time{}, false
	}
}

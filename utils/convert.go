package utils

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// ParseAnyInt converts a loosely typed JSON value to int.
// Upstreams disagree on whether numbers are numbers or strings ("245" vs 245).
func ParseAnyInt(val any) int {
	return int(ParseAnyInt64(val))
}

// ParseAnyInt64 converts a loosely typed JSON value to int64. Unknown shapes give 0.
func ParseAnyInt64(val any) int64 {
	switch v := val.(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return int64(f)
		}
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return 0
		}
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return int64(f)
		}
	}
	return 0
}

// ParseAnyString converts a loosely typed JSON value to string.
func ParseAnyString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	// nil, 对象和数组都没有合理的字符串形式
	return ""
}

// ParseAnyStrings converts a loosely typed JSON array to its non-empty scalar
// entries. Anything that is not an array gives nil.
func ParseAnyStrings(val any) []string {
	items, ok := val.([]any)
	if !ok {
		return nil
	}
	return lo.Compact(lo.Map(items, func(v any, _ int) string { return ParseAnyString(v) }))
}

// DecodeList decodes a JSON array element by element, dropping elements that
// don't fit T. A value that is not an array gives nil.
func DecodeList[T any](raw json.RawMessage) []T {
	if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '[' {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if json.Unmarshal(item, &v) != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// ParseAnyBool accepts true/false as well as "true"/"1" style strings.
func ParseAnyBool(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return false
}

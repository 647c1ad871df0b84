package frontmatter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the shape of a frontmatter value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindList:
		return "list"
	case KindMap:
		return "mapping"
	default:
		return "null"
	}
}

// Value is a normalized frontmatter value. It is a closed tagged variant so
// shape checks are exhaustive switches rather than reflection.
type Value struct {
	kind    Kind
	str     string
	num     float64
	boolean bool
	items   []Value
	entries map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// String wraps a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool wraps a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// List wraps a sequence of values.
func List(items []Value) Value { return Value{kind: KindList, items: items} }

// Map wraps a mapping of values.
func Map(entries map[string]Value) Value { return Value{kind: KindMap, entries: entries} }

// Kind returns the value's shape.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsEmpty reports whether the value is null, an empty string, or an empty
// list/mapping. Empty values are compatible with every declared shape.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return strings.TrimSpace(v.str) == ""
	case KindList:
		return len(v.items) == 0
	case KindMap:
		return len(v.entries) == 0
	default:
		return false
	}
}

// AsString returns the value as a string, if it is one.
func (v Value) AsString() (string, bool) {
	if v.kind == KindString {
		return v.str, true
	}
	return "", false
}

// AsNumber returns the value as a number, if it is one.
func (v Value) AsNumber() (float64, bool) {
	if v.kind == KindNumber {
		return v.num, true
	}
	return 0, false
}

// AsBool returns the value as a boolean, if it is one.
func (v Value) AsBool() (bool, bool) {
	if v.kind == KindBool {
		return v.boolean, true
	}
	return false, false
}

// AsList returns the value as a list, if it is one.
func (v Value) AsList() ([]Value, bool) {
	if v.kind == KindList {
		return v.items, true
	}
	return nil, false
}

// AsMap returns the value as a mapping, if it is one.
func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind == KindMap {
		return v.entries, true
	}
	return nil, false
}

// Display renders the value the way a user would type it. Used for string
// coercion in comparisons and for issue messages.
func (v Value) Display() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.boolean)
	case KindList:
		parts := make([]string, len(v.items))
		for i, item := range v.items {
			parts[i] = item.Display()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.entries))
		for k := range v.entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %s", k, v.entries[k].Display())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return ""
	}
}

// Raw returns the underlying value as plain Go data.
func (v Value) Raw() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.boolean
	case KindList:
		out := make([]interface{}, len(v.items))
		for i, item := range v.items {
			out[i] = item.Raw()
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.entries))
		for k, item := range v.entries {
			out[k] = item.Raw()
		}
		return out
	default:
		return nil
	}
}

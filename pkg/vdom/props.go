package vdom

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// Keys returns the prop names in sorted order.
func (p Props) Keys() []string {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Plain returns a copy of p without event handlers.
func (p Props) Plain() Props {
	out := make(Props, len(p))
	for key, value := range p {
		if !IsEventHandler(key) {
			out[key] = value
		}
	}
	return out
}

// Handlers returns the event-handler props keyed by prop name.
func (p Props) Handlers() Props {
	out := make(Props)
	for key, value := range p {
		if IsEventHandler(key) {
			out[key] = value
		}
	}
	return out
}

// ValuesEqual compares two prop values for equality. Function values are
// never equal, since Go cannot tell two closures apart.
func ValuesEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return av == bv
		}
		return false
	case int:
		if bv, ok := b.(int); ok {
			return av == bv
		}
		return false
	case int64:
		if bv, ok := b.(int64); ok {
			return av == bv
		}
		return false
	case float64:
		if bv, ok := b.(float64); ok {
			return av == bv
		}
		return false
	case bool:
		if bv, ok := b.(bool); ok {
			return av == bv
		}
		return false
	case nil:
		return b == nil
	}
	if reflect.TypeOf(a).Kind() == reflect.Func || (b != nil && reflect.TypeOf(b).Kind() == reflect.Func) {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// PropToString converts a prop value to its string form.
func PropToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

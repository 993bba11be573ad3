package remote

import "fmt"

// String returns the string value of key.
func (d Document) String(key string) (string, bool) {
	v, ok := d.Fields[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Float returns a numeric field as float64, accepting any integer or float
// representation the drivers produce.
func (d Document) Float(key string) (float64, bool) {
	return toFloat(d.Fields[key])
}

// Int returns a numeric field as int64. Floats are truncated.
func (d Document) Int(key string) (int64, bool) {
	v, ok := d.Fields[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float32:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

// Maps returns an array field whose elements are all objects.
func (d Document) Maps(key string) ([]map[string]any, error) {
	v, ok := d.Fields[key]
	if !ok || v == nil {
		return nil, nil
	}

	var raw []any
	switch arr := v.(type) {
	case []map[string]any:
		return arr, nil
	case []any:
		raw = arr
	default:
		return nil, fmt.Errorf("field %q is %T, not an array", key, v)
	}

	out := make([]map[string]any, 0, len(raw))
	for i, el := range raw {
		m, ok := el.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q[%d] is %T, not an object", key, i, el)
		}
		out = append(out, m)
	}
	return out, nil
}

// Sub wraps a nested object so the same accessors can be used on it.
func Sub(m map[string]any) Document {
	return Document{Fields: m}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

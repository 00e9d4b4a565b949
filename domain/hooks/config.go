package hooks

import (
	"fmt"
)

// Config entry parsers shared by hook constructors. Unknown keys are not an
// error at this layer; reporting them is the config loader's concern.

// StringList pulls a required list-of-strings entry from the config.
func (c Config) StringList(key string) ([]string, error) {
	raw, ok := c[key]
	if !ok {
		return nil, fmt.Errorf("required key %q missing from hook config", key)
	}
	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("key %q must be a list of strings, found %T", key, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("key %q must be a list, was %T", key, raw)
	}
}

// FloatOr pulls an optional numeric entry, falling back to def when absent.
func (c Config) FloatOr(key string, def float64) (float64, error) {
	raw, ok := c[key]
	if !ok {
		return def, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("key %q must be numeric, was %T", key, raw)
	}
}

// Mapping pulls an optional nested mapping entry.
func (c Config) Mapping(key string) (map[string]any, bool, error) {
	raw, ok := c[key]
	if !ok {
		return nil, false, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, false, fmt.Errorf("key %q must be a mapping, was %T", key, raw)
	}
	return m, true, nil
}

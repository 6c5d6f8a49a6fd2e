// Package config provides the read-only, hierarchical settings store shared by
// the host application and its plugins.
//
// Values are addressed by dotted paths ("twig.extend.functions"). A Config is
// constructed once per run (usually by Load) and never mutated afterwards.
package config

import (
	"fmt"
	"maps"
	"reflect"
	"strconv"
	"strings"
)

// Config is a read-only key/value tree addressed by dotted paths.
type Config struct {
	values map[string]any
	file   string
}

// New wraps an in-memory value tree. Nested maps are normalized so lookups
// work regardless of whether they came from YAML or Go literals.
func New(values map[string]any) *Config {
	return &Config{values: normalizeMap(values)}
}

// File returns the path the configuration was loaded from, if any.
func (c *Config) File() string {
	return c.file
}

// Get returns the value stored at the dotted key, or nil when absent.
func (c *Config) Get(key string) any {
	v, _ := c.lookup(key)
	return v
}

// Has reports whether the dotted key exists (even when its value is empty).
func (c *Config) Has(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

// IsEmpty reports whether the key is absent or holds an empty value.
// Emptiness follows the rules of Empty.
func (c *Config) IsEmpty(key string) bool {
	v, ok := c.lookup(key)
	return !ok || Empty(v)
}

// GetString returns the value at key formatted as a string. Maps and slices
// yield "".
func (c *Config) GetString(key string) string {
	switch v := c.Get(key).(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int, int64, float64, uint64:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

// GetBool returns the truthiness of the value at key.
func (c *Config) GetBool(key string) bool {
	switch v := c.Get(key).(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return !Empty(v)
		}
		return b
	default:
		return !Empty(v)
	}
}

// GetStringMap returns a copy of the map at key, or an empty map.
func (c *Config) GetStringMap(key string) map[string]any {
	if m, ok := c.Get(key).(map[string]any); ok {
		return maps.Clone(m)
	}
	return map[string]any{}
}

// Sub returns the subtree at key as its own Config.
func (c *Config) Sub(key string) *Config {
	return &Config{values: c.GetStringMap(key), file: c.file}
}

// All returns a deep copy of the whole tree.
func (c *Config) All() map[string]any {
	return deepCopy(c.values)
}

func (c *Config) lookup(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	key = strings.Trim(strings.TrimSpace(key), ".")
	if key == "" {
		return c.values, true
	}
	var current any = c.values
	for _, part := range strings.Split(key, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Empty reports whether v is "empty": nil, false, numeric zero, "", "0", or
// a zero-length map, slice or array.
func Empty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == "" || t == "0"
	case int:
		return t == 0
	case int64:
		return t == 0
	case uint64:
		return t == 0
	case float64:
		return t == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return rv.Uint() == 0
	case reflect.Float32:
		return rv.Float() == 0
	}
	return false
}

func normalizeMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalizeMap(t)
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[fmt.Sprint(k)] = normalizeValue(vv)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = normalizeValue(vv)
		}
		return out
	default:
		return v
	}
}

func deepCopy(in map[string]any) map[string]any {
	return normalizeMap(in)
}

// merge copies src onto dst recursively; values in src win except where both
// sides hold maps, which are merged key by key.
func merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for k, v := range src {
		if sm, ok := v.(map[string]any); ok {
			if dm, ok := dst[k].(map[string]any); ok {
				dst[k] = merge(dm, sm)
				continue
			}
		}
		dst[k] = v
	}
	return dst
}

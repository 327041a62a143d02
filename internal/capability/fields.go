package capability

import (
	"strings"
	"unicode"
)

// Fields is a tolerant request or response body keyed by wire field name.
// Writers assign a value under every plausible spelling of a field; readers
// accept the first spelling present. This is how the client survives
// deployments that disagree on snake_case vs camelCase field naming.
type Fields map[string]any

// Set assigns v under every given name and its case variants.
func (f Fields) Set(v any, names ...string) {
	for _, name := range names {
		for _, variant := range nameVariants(name) {
			f[variant] = v
		}
	}
}

// Get returns the first value present under any of the given names or their
// case variants.
func (f Fields) Get(names ...string) (any, bool) {
	for _, name := range names {
		for _, variant := range nameVariants(name) {
			if v, ok := f[variant]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

// GetString returns the first value under the given names as a string.
func (f Fields) GetString(names ...string) (string, bool) {
	v, ok := f.Get(names...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetFloat returns the first value under the given names as a float64.
// JSON numbers decode as float64.
func (f Fields) GetFloat(names ...string) (float64, bool) {
	v, ok := f.Get(names...)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// GetInt returns the first value under the given names as an int64.
func (f Fields) GetInt(names ...string) (int64, bool) {
	n, ok := f.GetFloat(names...)
	if !ok {
		return 0, false
	}
	return int64(n), true
}

// nameVariants returns the spellings a field may carry on the wire: the name
// itself, its snake_case form, and its lowerCamel form.
func nameVariants(name string) []string {
	snake := toSnake(name)
	camel := toCamel(snake)

	variants := []string{name}
	if snake != name {
		variants = append(variants, snake)
	}
	if camel != name && camel != snake {
		variants = append(variants, camel)
	}
	return variants
}

// toSnake converts lowerCamel or UpperCamel to snake_case.
func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 && name[i-1] != '_' {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// toCamel converts snake_case to lowerCamel.
func toCamel(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

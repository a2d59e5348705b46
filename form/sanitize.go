package form

import (
	"html"
	"strings"
	"sync"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer transforms raw input before it reaches a field setter.
type Sanitizer func(value string) string

var (
	sanitizersMu sync.RWMutex
	sanitizers   = map[string]Sanitizer{}

	stripPolicyOnce sync.Once
	stripPolicy     *bluemonday.Policy
)

// RegisterSanitizer registers a custom sanitizer.
//
// Example:
//
//	form.RegisterSanitizer("remove_spaces", func(value string) string {
//	    return strings.ReplaceAll(value, " ", "")
//	})
func RegisterSanitizer(name string, sanitizer Sanitizer) {
	sanitizersMu.Lock()
	defer sanitizersMu.Unlock()
	sanitizers[name] = sanitizer
}

// Sanitize applies a comma-separated sanitizer chain such as
// "trim,strip_html". Unknown names are skipped.
func Sanitize(value, chain string) string {
	if chain == "" {
		return value
	}
	sanitizersMu.RLock()
	defer sanitizersMu.RUnlock()
	for _, name := range strings.Split(chain, ",") {
		if s, ok := sanitizers[strings.TrimSpace(name)]; ok {
			value = s(value)
		}
	}
	return value
}

// HasSanitizer reports whether name is registered.
func HasSanitizer(name string) bool {
	sanitizersMu.RLock()
	defer sanitizersMu.RUnlock()
	_, ok := sanitizers[name]
	return ok
}

func htmlStripper() *bluemonday.Policy {
	stripPolicyOnce.Do(func() {
		stripPolicy = bluemonday.StrictPolicy()
	})
	return stripPolicy
}

// builtinSanitizers contains all built-in sanitization functions
var builtinSanitizers = map[string]Sanitizer{
	"trim":        strings.TrimSpace,
	"to_lower":    strings.ToLower,
	"to_upper":    strings.ToUpper,
	"escape_html": html.EscapeString,
	"strip_html": func(value string) string {
		// StrictPolicy escapes what it keeps; undo that so the field stores text.
		return html.UnescapeString(htmlStripper().Sanitize(value))
	},
	"normalize_whitespace": func(value string) string {
		return whitespaceRegex.ReplaceAllString(value, " ")
	},
	"strip_numeric": func(value string) string {
		var result strings.Builder
		for _, char := range value {
			if !unicode.IsDigit(char) {
				result.WriteRune(char)
			}
		}
		return result.String()
	},
	"snake_case": func(value string) string {
		value = strings.ToLower(value)
		value = snakeKebabRegex.ReplaceAllString(value, "_")
		return strings.Trim(value, "_")
	},
	"kebab_case": func(value string) string {
		value = strings.ToLower(value)
		value = snakeKebabRegex.ReplaceAllString(value, "-")
		return strings.Trim(value, "-")
	},
}

func init() {
	for name, sanitizer := range builtinSanitizers {
		RegisterSanitizer(name, sanitizer)
	}
}

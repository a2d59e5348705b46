package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settable is anything that accepts text input per field, in the way an
// input widget would hand it over.
type Settable interface {
	Fields() []string
	SetField(name, value string) error
}

// DecodeDocument reads a YAML (or JSON, which is valid YAML) mapping of
// field names to values and returns the values in text form.
//
// Example document:
//
//	username: gopher
//	birthDate: 2001-04-05
//	acceptTerms: true
func DecodeDocument(reader io.Reader) (map[string]string, error) {
	var doc map[string]interface{}
	if err := yaml.NewDecoder(reader).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("decode document: %w", err)
	}
	values := make(map[string]string, len(doc))
	for key, value := range doc {
		values[key] = toString(value)
	}
	return values, nil
}

// Apply sets each value on target in target's field order, so dependent
// rules observe the same sequence an interactive user would produce.
// Parse failures are reported per field; keys target does not declare are
// reported under KeyDocument. Sanitizer chains, keyed by field, run first.
func Apply(target Settable, values map[string]string, chains map[string]string) ValidationErrors {
	problems := make(ValidationErrors)
	declared := make(map[string]struct{})
	for _, field := range target.Fields() {
		declared[field] = struct{}{}
		raw, ok := values[field]
		if !ok {
			continue
		}
		if err := target.SetField(field, Sanitize(raw, chains[field])); err != nil {
			problems[field] = append(problems[field], err.Error())
		}
	}

	var unknown []string
	for key := range values {
		if _, ok := declared[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		problems[KeyDocument] = append(problems[KeyDocument], fmt.Sprintf("%s: %q", ErrUnknownField, key))
	}
	return problems
}

// toString converts any value to a string representation.
// This handles the scalar types a YAML or JSON decoder produces.
func toString(value interface{}) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case int:
		return fmt.Sprintf("%d", v)
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%.0f", v)
		}
		return fmt.Sprintf("%g", v)
	case bool:
		return fmt.Sprintf("%t", v)
	case time.Time:
		return v.Format(time.DateOnly)
	case []interface{}:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = toString(item)
		}
		return strings.Join(parts, ",")
	case map[string]interface{}:
		if jsonBytes, err := json.Marshal(v); err == nil {
			return string(jsonBytes)
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Package form is the live validation engine behind every liveform form.
//
// Features:
//   - Per-field error store with insertion-ordered, de-duplicated messages
//   - Static field -> rule tables with first-failing-check-wins semantics
//   - Cross-field dependency edges re-validated on mutation
//   - Two submit disciplines: trust accumulated state or revalidate
//   - Localized messages through a pluggable Translator
//   - Input sanitization (trim, strip_html, ...)
//   - Observability hooks for tracing and metrics
//
// Example:
//
//	rules := form.NewRuleSet[Signup]().
//	    Field("email",
//	        form.Check[Signup]{Fails: func(s Signup) bool { return s.Email == "" }, Message: "signup.email.required"},
//	        form.Check[Signup]{Fails: func(s Signup) bool { return !form.IsEmail(s.Email) }, Message: "signup.email.invalid"},
//	    )
//
//	v := form.NewValidator("signup", rules, vm.snapshot)
//	v.Errors().OnErrorsChanged(func(field string) {
//	    fmt.Println(field, v.Errors().GetErrors(field))
//	})
//	v.FieldChanged("email")
package form

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// EmailPattern is the address shape IsEmail accepts.
const EmailPattern = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`

// Pre-compiled regular expressions used by the built-in checks.
var (
	emailRegex      = regexp.MustCompile(EmailPattern)
	whitespaceRegex = regexp.MustCompile(`\s+`)
	snakeKebabRegex = regexp.MustCompile(`[^a-z0-9]+`)
)

var (
	// ErrValidationFailed is returned by submit actions when the full
	// validation pass leaves errors behind.
	ErrValidationFailed = errors.New("form: validation failed")
	// ErrUnknownField is returned when a caller names a field the form does
	// not declare.
	ErrUnknownField = errors.New("form: unknown field")
	// ErrInvalidInput is returned when text input cannot be parsed into the
	// field's type.
	ErrInvalidInput = errors.New("form: invalid input")
	// ErrUnsupported marks reverse conversions that are deliberately not
	// implemented.
	ErrUnsupported = errors.New("form: unsupported operation")
)

// ValidationErrors maps field names to their active error messages.
type ValidationErrors map[string][]string

// Count returns the total number of messages across all fields.
func (e ValidationErrors) Count() int {
	n := 0
	for _, msgs := range e {
		n += len(msgs)
	}
	return n
}

// Translator resolves a message key into display text.
// *i18n.Translator satisfies it.
type Translator interface {
	T(key string, params map[string]interface{}) string
}

// TranslatorFunc adapts a plain function to Translator.
type TranslatorFunc func(key string, params map[string]interface{}) string

// T implements Translator.
func (f TranslatorFunc) T(key string, params map[string]interface{}) string {
	return f(key, params)
}

// KeyTranslator returns message keys untranslated.
var KeyTranslator Translator = TranslatorFunc(func(key string, _ map[string]interface{}) string {
	return key
})

// IsEmail reports whether value looks like local@domain.tld.
func IsEmail(value string) bool {
	return emailRegex.MatchString(value)
}

// Length counts characters, not bytes.
func Length(value string) int {
	return utf8.RuneCountInString(value)
}

// Today truncates now to midnight of its local calendar date.
func Today(now time.Time) time.Time {
	return DateOf(now)
}

// DateOf drops the time-of-day component of t, keeping its location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddYears adds n years to t keeping the month and day of month. A day
// past the end of the target month is clamped to its last day, so Feb 29
// minus one year is Feb 28.
func AddYears(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	y += n
	if last := daysIn(y, m); d > last {
		d = last
	}
	hh, mm, ss := t.Clock()
	return time.Date(y, m, d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateIn moves t's calendar date to midnight in loc. Dates entered as text
// and dates from the clock must share a location before they are compared.
func DateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// SameDate reports whether a and b fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}

// FormatErrors joins messages one per line for display. It returns "" when
// there is nothing to show.
func FormatErrors(messages []string) string {
	var kept []string
	for _, m := range messages {
		if m != "" {
			kept = append(kept, m)
		}
	}
	return strings.Join(kept, "\n")
}

// ParseErrors is the reverse of FormatErrors. Display text cannot be turned
// back into structured errors, so it always fails.
func ParseErrors(string) ([]string, error) {
	return nil, ErrUnsupported
}

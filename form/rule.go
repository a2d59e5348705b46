package form

import "fmt"

// Check is one (predicate, message) pair. Fails returns true when the
// snapshot violates the check; Message is the key handed to the Translator.
type Check[S any] struct {
	Fails   func(S) bool
	Message string
	Params  map[string]interface{}
}

// Rule is the ordered list of checks for one field. Evaluation stops at the
// first failing check, so a field never carries more than one message from
// its own rule.
type Rule[S any] []Check[S]

// Evaluate returns the first failing check.
func (r Rule[S]) Evaluate(s S) (Check[S], bool) {
	for _, c := range r {
		if c.Fails(s) {
			return c, true
		}
	}
	return Check[S]{}, false
}

// RuleSet is a static mapping from field name to rule plus the dependency
// edges between fields. Build it once at package init; it is read-only
// afterwards and safe to share between form instances.
type RuleSet[S any] struct {
	order      []string
	rules      map[string]Rule[S]
	dependents map[string][]string
}

// NewRuleSet returns an empty rule set.
func NewRuleSet[S any]() *RuleSet[S] {
	return &RuleSet[S]{
		rules:      make(map[string]Rule[S]),
		dependents: make(map[string][]string),
	}
}

// Field declares field with its checks. Fields are validated in declaration
// order by ValidateAll. Declaring the same field twice panics.
func (rs *RuleSet[S]) Field(name string, checks ...Check[S]) *RuleSet[S] {
	if _, dup := rs.rules[name]; dup {
		panic(fmt.Sprintf("form: field %q declared twice", name))
	}
	rs.order = append(rs.order, name)
	rs.rules[name] = Rule[S](checks)
	return rs
}

// DependsOn records that field's rule reads each of sources, so a change to
// a source re-validates field.
func (rs *RuleSet[S]) DependsOn(field string, sources ...string) *RuleSet[S] {
	for _, src := range sources {
		rs.dependents[src] = append(rs.dependents[src], field)
	}
	return rs
}

// Fields returns the declared fields in order.
func (rs *RuleSet[S]) Fields() []string {
	out := make([]string, len(rs.order))
	copy(out, rs.order)
	return out
}

// Has reports whether field is declared.
func (rs *RuleSet[S]) Has(field string) bool {
	_, ok := rs.rules[field]
	return ok
}

// Affected returns changed followed by every field that depends on it.
// Undeclared names yield nil.
func (rs *RuleSet[S]) Affected(changed string) []string {
	if !rs.Has(changed) {
		return nil
	}
	out := []string{changed}
	for _, dep := range rs.dependents[changed] {
		if dep != changed && rs.Has(dep) {
			out = append(out, dep)
		}
	}
	return out
}

// Evaluate runs field's rule against s.
func (rs *RuleSet[S]) Evaluate(field string, s S) (Check[S], bool) {
	rule, ok := rs.rules[field]
	if !ok {
		return Check[S]{}, false
	}
	return rule.Evaluate(s)
}

// Validate evaluates every rule against s without touching any store.
func (rs *RuleSet[S]) Validate(s S, tr Translator) ValidationErrors {
	if tr == nil {
		tr = KeyTranslator
	}
	out := make(ValidationErrors)
	for _, field := range rs.order {
		if c, failed := rs.rules[field].Evaluate(s); failed {
			out[field] = []string{tr.T(c.Message, c.Params)}
		}
	}
	return out
}

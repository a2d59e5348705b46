package form

import (
	"context"
	"fmt"
	"time"
)

// SubmitPolicy decides how CanSubmit derives its answer.
type SubmitPolicy int

const (
	// TrustState answers from the accumulated error state alone.
	TrustState SubmitPolicy = iota
	// Revalidate runs every rule before answering.
	Revalidate
)

// String implements fmt.Stringer.
func (p SubmitPolicy) String() string {
	switch p {
	case TrustState:
		return "trust-state"
	case Revalidate:
		return "revalidate"
	default:
		return fmt.Sprintf("SubmitPolicy(%d)", int(p))
	}
}

// Option configures a Validator.
type Option func(*options)

type options struct {
	translator Translator
	policy     SubmitPolicy
}

// WithTranslator sets the Translator used to render message keys.
func WithTranslator(t Translator) Option {
	return func(o *options) {
		if t != nil {
			o.translator = t
		}
	}
}

// WithSubmitPolicy selects the CanSubmit discipline.
func WithSubmitPolicy(p SubmitPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// Validator binds a RuleSet to one form instance: it reads the form through
// snapshot, writes results into its ErrorState and re-runs dependent rules
// when a field changes.
type Validator[S any] struct {
	name       string
	rules      *RuleSet[S]
	snapshot   func() S
	errors     *ErrorState
	translator Translator
	policy     SubmitPolicy
}

// NewValidator creates a validator named name. The name labels telemetry.
func NewValidator[S any](name string, rules *RuleSet[S], snapshot func() S, opts ...Option) *Validator[S] {
	o := options{translator: KeyTranslator, policy: TrustState}
	for _, opt := range opts {
		opt(&o)
	}
	return &Validator[S]{
		name:       name,
		rules:      rules,
		snapshot:   snapshot,
		errors:     NewErrorState(rules.Fields()...),
		translator: o.translator,
		policy:     o.policy,
	}
}

// Name returns the form name.
func (v *Validator[S]) Name() string { return v.name }

// Errors exposes the error store.
func (v *Validator[S]) Errors() *ErrorState { return v.errors }

// Policy returns the submit discipline.
func (v *Validator[S]) Policy() SubmitPolicy { return v.policy }

// SetTranslator swaps the Translator. Existing messages keep their old
// text until the next validation pass.
func (v *Validator[S]) SetTranslator(t Translator) {
	if t != nil {
		v.translator = t
	}
}

// ValidateField clears field's errors and re-runs its rule.
// Unknown fields are ignored.
func (v *Validator[S]) ValidateField(field string) {
	if !v.rules.Has(field) {
		return
	}
	v.errors.ClearErrors(field)
	if c, failed := v.rules.Evaluate(field, v.snapshot()); failed {
		v.errors.AddError(field, v.translator.T(c.Message, c.Params))
	}
}

// FieldChanged re-validates field and every field depending on it.
// Call it after a setter reports an actual change.
func (v *Validator[S]) FieldChanged(field string) {
	affected := v.rules.Affected(field)
	if len(affected) == 0 {
		return
	}
	if obs := getObserver(); obs != nil {
		obs.OnFieldChanged(context.Background(), v.name, field)
	}
	for _, f := range affected {
		v.ValidateField(f)
	}
}

// ValidateAll re-runs every rule in declaration order and reports whether
// the form is now free of errors.
func (v *Validator[S]) ValidateAll(ctx context.Context) bool {
	start := time.Now()
	if obs := getObserver(); obs != nil {
		obs.OnValidationStart(ctx, v.name)
	}
	for _, f := range v.rules.Fields() {
		v.ValidateField(f)
	}
	handleValidationObservability(ctx, v.name, v.errors.Snapshot(), start)
	return !v.errors.HasErrors()
}

// CanSubmit is the submit-enabled predicate.
func (v *Validator[S]) CanSubmit() bool {
	if v.policy == Revalidate {
		return v.ValidateAll(context.Background())
	}
	return !v.errors.HasErrors()
}

// Submit runs a full validation pass and, when it leaves no errors, calls
// action. It returns ErrValidationFailed (wrapped) otherwise.
func (v *Validator[S]) Submit(ctx context.Context, action func(context.Context) error) error {
	start := time.Now()
	if obs := getObserver(); obs != nil {
		obs.OnSubmitStart(ctx, v.name)
	}
	var err error
	if v.ValidateAll(ctx) {
		err = action(ctx)
	} else {
		err = fmt.Errorf("%s: %w", v.name, ErrValidationFailed)
	}
	if obs := getObserver(); obs != nil {
		obs.OnSubmitEnd(ctx, v.name, err, time.Since(start))
	}
	return err
}

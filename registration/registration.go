// Package registration implements the user registration form: its model,
// its rule catalogue and the view-model that consumers bind to.
//
// Every setter compares before it stores. An actual change notifies field
// observers, re-runs the field's rule and the rules depending on it, and
// the error store notifies its own observers for each field whose errors
// changed.
//
// Example:
//
//	vm := registration.New(registration.WithTranslator(i18n.Default().Translator("zh")))
//	vm.OnErrorsChanged(func(field string) {
//	    fmt.Println(field, form.FormatErrors(vm.Errors(field)))
//	})
//	vm.SetUsername("gopher")
//	if vm.CanRegister() {
//	    receipt, err := vm.Register(ctx)
//	}
package registration

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kdsmith18542/liveform/form"
	"github.com/kdsmith18542/liveform/i18n"
	"github.com/kdsmith18542/liveform/notify"
	"github.com/kdsmith18542/liveform/observability"
)

// FormName labels the form in telemetry and receipts.
const FormName = "registration"

// FieldResult names the observable registration result text.
const FieldResult = "registrationResult"

// Form is the registration model.
type Form struct {
	Username        string    `json:"username" yaml:"username"`
	Password        string    `json:"password" yaml:"password"`
	ConfirmPassword string    `json:"confirmPassword" yaml:"confirmPassword"`
	Email           string    `json:"email" yaml:"email"`
	BirthDate       time.Time `json:"birthDate" yaml:"birthDate"`
	AcceptTerms     bool      `json:"acceptTerms" yaml:"acceptTerms"`
}

// Defaults returns a blank form whose birth date is today minus AdultAge
// years. On Feb 29 the default falls on Feb 28 of a non-leap year.
func Defaults(today time.Time) Form {
	return Form{BirthDate: form.AddYears(form.DateOf(today), -AdultAge)}
}

// Option configures a ViewModel.
type Option func(*ViewModel)

// WithClock sets the clock the rules read "today" from.
func WithClock(now func() time.Time) Option {
	return func(vm *ViewModel) {
		if now != nil {
			vm.now = now
		}
	}
}

// WithTranslator sets the translator for messages and the result text.
func WithTranslator(tr form.Translator) Option {
	return func(vm *ViewModel) {
		if tr != nil {
			vm.tr = tr
		}
	}
}

// ViewModel owns a registration Form and its error state.
type ViewModel struct {
	form          Form
	result        string
	now           func() time.Time
	tr            form.Translator
	changed       notify.Notifier
	passwordReset notify.Notifier
	validator     *form.Validator[Input]
}

// New creates a registration view-model with default field values and an
// empty error state.
func New(opts ...Option) *ViewModel {
	vm := &ViewModel{now: time.Now}
	for _, opt := range opts {
		opt(vm)
	}
	if vm.tr == nil {
		manager := i18n.Default()
		vm.tr = manager.Translator(manager.DefaultLocale())
	}
	vm.form = Defaults(vm.now())
	vm.validator = form.NewValidator(FormName, Rules(), vm.input,
		form.WithTranslator(vm.tr),
		form.WithSubmitPolicy(form.Revalidate),
	)
	// Validation is the first observer, so consumers see settled errors.
	vm.changed.Subscribe(vm.validator.FieldChanged)
	return vm
}

func (vm *ViewModel) input() Input {
	return Input{Form: vm.form, Today: form.Today(vm.now())}
}

// Name returns FormName.
func (vm *ViewModel) Name() string { return FormName }

// Fields returns the field names in declaration order.
func (vm *ViewModel) Fields() []string { return Rules().Fields() }

// Snapshot returns a copy of the current form values.
func (vm *ViewModel) Snapshot() Form { return vm.form }

// Username returns the current username.
func (vm *ViewModel) Username() string { return vm.form.Username }

// Password returns the current password.
func (vm *ViewModel) Password() string { return vm.form.Password }

// ConfirmPassword returns the current password confirmation.
func (vm *ViewModel) ConfirmPassword() string { return vm.form.ConfirmPassword }

// Email returns the current email.
func (vm *ViewModel) Email() string { return vm.form.Email }

// BirthDate returns the current birth date.
func (vm *ViewModel) BirthDate() time.Time { return vm.form.BirthDate }

// AcceptTerms returns whether the terms are accepted.
func (vm *ViewModel) AcceptTerms() bool { return vm.form.AcceptTerms }

// Result returns the text of the last registration outcome.
func (vm *ViewModel) Result() string { return vm.result }

// SetUsername sets the username.
func (vm *ViewModel) SetUsername(v string) bool {
	return notify.Set(&vm.changed, &vm.form.Username, v, FieldUsername)
}

// SetPassword sets the password. The confirmation is re-validated.
func (vm *ViewModel) SetPassword(v string) bool {
	return notify.Set(&vm.changed, &vm.form.Password, v, FieldPassword)
}

// SetConfirmPassword sets the password confirmation.
func (vm *ViewModel) SetConfirmPassword(v string) bool {
	return notify.Set(&vm.changed, &vm.form.ConfirmPassword, v, FieldConfirmPassword)
}

// SetEmail sets the email.
func (vm *ViewModel) SetEmail(v string) bool {
	return notify.Set(&vm.changed, &vm.form.Email, v, FieldEmail)
}

// SetBirthDate sets the birth date. Only the calendar date is kept. The
// terms acceptance is re-validated, since the minor rule depends on it.
func (vm *ViewModel) SetBirthDate(v time.Time) bool {
	v = form.DateIn(v, vm.now().Location())
	return notify.SetFunc(&vm.changed, &vm.form.BirthDate, v, FieldBirthDate, time.Time.Equal)
}

// SetAcceptTerms sets the terms acceptance.
func (vm *ViewModel) SetAcceptTerms(v bool) bool {
	return notify.Set(&vm.changed, &vm.form.AcceptTerms, v, FieldAcceptTerms)
}

func (vm *ViewModel) setResult(v string) {
	notify.Set(&vm.changed, &vm.result, v, FieldResult)
}

// SetField parses text input for field and applies it through the typed
// setter. Dates use YYYY-MM-DD; booleans accept the strconv.ParseBool forms.
func (vm *ViewModel) SetField(name, value string) error {
	switch name {
	case FieldUsername:
		vm.SetUsername(value)
	case FieldPassword:
		vm.SetPassword(value)
	case FieldConfirmPassword:
		vm.SetConfirmPassword(value)
	case FieldEmail:
		vm.SetEmail(value)
	case FieldBirthDate:
		d, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(value), vm.now().Location())
		if err != nil {
			return fmt.Errorf("%s: %w: %v", name, form.ErrInvalidInput, err)
		}
		vm.SetBirthDate(d)
	case FieldAcceptTerms:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %w: %v", name, form.ErrInvalidInput, err)
		}
		vm.SetAcceptTerms(b)
	default:
		return fmt.Errorf("%s: %w", name, form.ErrUnknownField)
	}
	return nil
}

// Value returns field in the text form SetField accepts.
func (vm *ViewModel) Value(name string) (string, error) {
	switch name {
	case FieldUsername:
		return vm.form.Username, nil
	case FieldPassword:
		return vm.form.Password, nil
	case FieldConfirmPassword:
		return vm.form.ConfirmPassword, nil
	case FieldEmail:
		return vm.form.Email, nil
	case FieldBirthDate:
		return vm.form.BirthDate.Format(time.DateOnly), nil
	case FieldAcceptTerms:
		return strconv.FormatBool(vm.form.AcceptTerms), nil
	default:
		return "", fmt.Errorf("%s: %w", name, form.ErrUnknownField)
	}
}

// OnFieldChanged subscribes to field and result changes.
func (vm *ViewModel) OnFieldChanged(h notify.Handler) *notify.Subscription {
	return vm.changed.Subscribe(h)
}

// OnErrorsChanged subscribes to per-field error changes.
func (vm *ViewModel) OnErrorsChanged(h notify.Handler) *notify.Subscription {
	return vm.validator.Errors().OnErrorsChanged(h)
}

// OnPasswordReset subscribes to form resets, so masked password inputs
// can clear themselves.
func (vm *ViewModel) OnPasswordReset(h func()) *notify.Subscription {
	if h == nil {
		return vm.passwordReset.Subscribe(nil)
	}
	return vm.passwordReset.Subscribe(func(string) { h() })
}

// Errors returns the active messages for field.
func (vm *ViewModel) Errors(field string) []string {
	return vm.validator.Errors().GetErrors(field)
}

// ErrorFields returns the fields that currently have errors.
func (vm *ViewModel) ErrorFields() []string {
	return vm.validator.Errors().Fields()
}

// HasErrors reports whether any field has an error.
func (vm *ViewModel) HasErrors() bool {
	return vm.validator.Errors().HasErrors()
}

// ValidateAll re-runs every rule and reports whether the form is valid.
func (vm *ViewModel) ValidateAll(ctx context.Context) bool {
	return vm.validator.ValidateAll(ctx)
}

// CanRegister is the submit-enabled predicate. It revalidates the whole
// form first, so untouched fields are caught.
func (vm *ViewModel) CanRegister() bool {
	return vm.validator.CanSubmit()
}

// CanSubmit implements the generic submit gate; it is CanRegister.
func (vm *ViewModel) CanSubmit() bool {
	return vm.CanRegister()
}

// SetTranslator swaps the message language and re-renders current errors.
func (vm *ViewModel) SetTranslator(tr form.Translator) {
	if tr == nil {
		return
	}
	vm.tr = tr
	vm.validator.SetTranslator(tr)
	for _, field := range vm.validator.Errors().Fields() {
		vm.validator.ValidateField(field)
	}
}

// Register runs a full validation pass and, if the form is valid,
// simulates the registration: the form resets and the result text
// reports the registered username and email.
func (vm *ViewModel) Register(ctx context.Context) (form.Receipt, error) {
	var receipt form.Receipt
	err := vm.validator.Submit(ctx, func(ctx context.Context) error {
		registered := vm.form
		vm.Reset()

		message := vm.tr.T("registration.result", map[string]interface{}{
			"Username": registered.Username,
			"Email":    registered.Email,
		})
		vm.setResult(message)

		receipt = form.NewReceipt(FormName, vm.now(), message)
		observability.LogInfo(ctx, "registration submitted", map[string]string{
			"form.name":  FormName,
			"receipt.id": receipt.ID.String(),
			"username":   registered.Username,
		})
		return nil
	})
	return receipt, err
}

// Submit registers the form, discarding the receipt.
func (vm *ViewModel) Submit(ctx context.Context) (string, error) {
	if _, err := vm.Register(ctx); err != nil {
		return "", err
	}
	return vm.result, nil
}

// Reset restores the default values, clears the result and every error,
// then fires the password-reset event.
func (vm *ViewModel) Reset() {
	defaults := Defaults(vm.now())
	vm.SetUsername(defaults.Username)
	vm.SetPassword(defaults.Password)
	vm.SetConfirmPassword(defaults.ConfirmPassword)
	vm.SetEmail(defaults.Email)
	vm.SetBirthDate(defaults.BirthDate)
	vm.SetAcceptTerms(defaults.AcceptTerms)
	vm.setResult("")

	vm.validator.Errors().ClearAll()
	vm.passwordReset.Notify("reset")
}

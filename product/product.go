// Package product implements the product entry form: its model, its rule
// catalogue and the view-model that consumers bind to.
//
// The product form trusts its accumulated error state for CanSave, while
// Save itself always runs a full validation pass before the simulated
// write.
package product

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kdsmith18542/liveform/form"
	"github.com/kdsmith18542/liveform/i18n"
	"github.com/kdsmith18542/liveform/notify"
	"github.com/kdsmith18542/liveform/observability"
)

// FormName labels the form in telemetry and receipts.
const FormName = "product"

// FieldResult names the observable save result text.
const FieldResult = "saveResult"

// DefaultSaveDelay is how long the simulated save takes.
const DefaultSaveDelay = time.Second

// Form is the product model.
type Form struct {
	Name        string          `json:"name" yaml:"name"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
	ReleaseDate time.Time       `json:"releaseDate" yaml:"releaseDate"`
	StockLevel  int             `json:"stockLevel" yaml:"stockLevel"`
	Description string          `json:"description" yaml:"description"`
	Category    string          `json:"category" yaml:"category"`
}

// Defaults returns a blank form released today.
func Defaults(today time.Time) Form {
	return Form{Price: decimal.Zero, ReleaseDate: form.DateOf(today)}
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

// WithTranslator sets the translator for messages and result texts.
func WithTranslator(tr form.Translator) Option {
	return func(vm *ViewModel) {
		if tr != nil {
			vm.tr = tr
		}
	}
}

// WithSaveDelay sets how long the simulated save takes.
func WithSaveDelay(d time.Duration) Option {
	return func(vm *ViewModel) {
		if d >= 0 {
			vm.delay = d
		}
	}
}

// WithSleep replaces time.Sleep for the simulated save.
func WithSleep(sleep func(time.Duration)) Option {
	return func(vm *ViewModel) {
		if sleep != nil {
			vm.sleep = sleep
		}
	}
}

// ViewModel owns a product Form and its error state.
type ViewModel struct {
	form      Form
	result    string
	now       func() time.Time
	sleep     func(time.Duration)
	delay     time.Duration
	tr        form.Translator
	changed   notify.Notifier
	validator *form.Validator[Input]
}

// New creates a product view-model with default field values and an empty
// error state.
func New(opts ...Option) *ViewModel {
	vm := &ViewModel{
		now:   time.Now,
		sleep: time.Sleep,
		delay: DefaultSaveDelay,
	}
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
		form.WithSubmitPolicy(form.TrustState),
	)
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

// ProductName returns the current product name.
func (vm *ViewModel) ProductName() string { return vm.form.Name }

// Price returns the current price.
func (vm *ViewModel) Price() decimal.Decimal { return vm.form.Price }

// ReleaseDate returns the current release date.
func (vm *ViewModel) ReleaseDate() time.Time { return vm.form.ReleaseDate }

// StockLevel returns the current stock level.
func (vm *ViewModel) StockLevel() int { return vm.form.StockLevel }

// Description returns the current description.
func (vm *ViewModel) Description() string { return vm.form.Description }

// Category returns the current category code.
func (vm *ViewModel) Category() string { return vm.form.Category }

// Result returns the text of the last save outcome.
func (vm *ViewModel) Result() string { return vm.result }

// SetName sets the product name.
func (vm *ViewModel) SetName(v string) bool {
	return notify.Set(&vm.changed, &vm.form.Name, v, FieldName)
}

// SetPrice sets the price. Prices that compare equal (1.0 and 1.00) are
// not a change.
func (vm *ViewModel) SetPrice(v decimal.Decimal) bool {
	return notify.SetFunc(&vm.changed, &vm.form.Price, v, FieldPrice, decimal.Decimal.Equal)
}

// SetReleaseDate sets the release date. Only the calendar date is kept.
func (vm *ViewModel) SetReleaseDate(v time.Time) bool {
	v = form.DateIn(v, vm.now().Location())
	return notify.SetFunc(&vm.changed, &vm.form.ReleaseDate, v, FieldReleaseDate, time.Time.Equal)
}

// SetStockLevel sets the stock level.
func (vm *ViewModel) SetStockLevel(v int) bool {
	return notify.Set(&vm.changed, &vm.form.StockLevel, v, FieldStockLevel)
}

// SetDescription sets the description.
func (vm *ViewModel) SetDescription(v string) bool {
	return notify.Set(&vm.changed, &vm.form.Description, v, FieldDescription)
}

// SetCategory sets the category code. The empty code means none chosen.
func (vm *ViewModel) SetCategory(v string) bool {
	return notify.Set(&vm.changed, &vm.form.Category, v, FieldCategory)
}

func (vm *ViewModel) setResult(v string) {
	notify.Set(&vm.changed, &vm.result, v, FieldResult)
}

// SetField parses text input for field and applies it through the typed
// setter. Categories must be one of Categories or empty.
func (vm *ViewModel) SetField(name, value string) error {
	switch name {
	case FieldName:
		vm.SetName(value)
	case FieldPrice:
		price, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %w: %v", name, form.ErrInvalidInput, err)
		}
		vm.SetPrice(price)
	case FieldReleaseDate:
		d, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(value), vm.now().Location())
		if err != nil {
			return fmt.Errorf("%s: %w: %v", name, form.ErrInvalidInput, err)
		}
		vm.SetReleaseDate(d)
	case FieldStockLevel:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %w: %v", name, form.ErrInvalidInput, err)
		}
		vm.SetStockLevel(n)
	case FieldDescription:
		vm.SetDescription(value)
	case FieldCategory:
		code := strings.TrimSpace(value)
		if code != "" && !IsCategory(code) {
			return fmt.Errorf("%s: %w: %q is not a category", name, form.ErrInvalidInput, code)
		}
		vm.SetCategory(code)
	default:
		return fmt.Errorf("%s: %w", name, form.ErrUnknownField)
	}
	return nil
}

// Value returns field in the text form SetField accepts.
func (vm *ViewModel) Value(name string) (string, error) {
	switch name {
	case FieldName:
		return vm.form.Name, nil
	case FieldPrice:
		return vm.form.Price.String(), nil
	case FieldReleaseDate:
		return vm.form.ReleaseDate.Format(time.DateOnly), nil
	case FieldStockLevel:
		return strconv.Itoa(vm.form.StockLevel), nil
	case FieldDescription:
		return vm.form.Description, nil
	case FieldCategory:
		return vm.form.Category, nil
	default:
		return "", fmt.Errorf("%s: %w", name, form.ErrUnknownField)
	}
}

// CategoryLabel returns the localized label for a category code.
func CategoryLabel(tr form.Translator, code string) string {
	return tr.T("category."+code, nil)
}

// OnFieldChanged subscribes to field and result changes.
func (vm *ViewModel) OnFieldChanged(h notify.Handler) *notify.Subscription {
	return vm.changed.Subscribe(h)
}

// OnErrorsChanged subscribes to per-field error changes.
func (vm *ViewModel) OnErrorsChanged(h notify.Handler) *notify.Subscription {
	return vm.validator.Errors().OnErrorsChanged(h)
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

// CanSave is the submit-enabled predicate. It reads the accumulated error
// state only; fields nobody touched are caught by Save.
func (vm *ViewModel) CanSave() bool {
	return vm.validator.CanSubmit()
}

// CanSubmit implements the generic submit gate; it is CanSave.
func (vm *ViewModel) CanSubmit() bool {
	return vm.CanSave()
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

// Save runs a full validation pass and, if the form is valid, simulates
// the write: the result reads "saving" for the save delay, then reports
// success. Once started the delay is not cancellable.
func (vm *ViewModel) Save(ctx context.Context) (form.Receipt, error) {
	var receipt form.Receipt
	err := vm.validator.Submit(ctx, func(ctx context.Context) error {
		vm.setResult(vm.tr.T("product.saving", nil))
		vm.sleep(vm.delay)

		message := vm.tr.T("product.saved", map[string]interface{}{"Name": vm.form.Name})
		vm.setResult(message)

		receipt = form.NewReceipt(FormName, vm.now(), message)
		observability.LogInfo(ctx, "product saved", map[string]string{
			"form.name":  FormName,
			"receipt.id": receipt.ID.String(),
			"product":    vm.form.Name,
		})
		return nil
	})
	return receipt, err
}

// Submit saves the form, discarding the receipt.
func (vm *ViewModel) Submit(ctx context.Context) (string, error) {
	if _, err := vm.Save(ctx); err != nil {
		return "", err
	}
	return vm.result, nil
}

// Reset restores the default values and clears the result and every error.
func (vm *ViewModel) Reset() {
	defaults := Defaults(vm.now())
	vm.SetName(defaults.Name)
	vm.SetPrice(defaults.Price)
	vm.SetReleaseDate(defaults.ReleaseDate)
	vm.SetStockLevel(defaults.StockLevel)
	vm.SetDescription(defaults.Description)
	vm.SetCategory(defaults.Category)
	vm.setResult("")

	vm.validator.Errors().ClearAll()
}

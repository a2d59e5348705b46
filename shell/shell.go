// Package shell is the interactive terminal front end. It plays the part
// of the data-binding layer: it sets field values from prompts, re-reads
// errors when the error store reports a change, and gates submits on the
// form's submit-enabled predicate.
package shell

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kdsmith18542/liveform/form"
	"github.com/kdsmith18542/liveform/notify"
	"github.com/kdsmith18542/liveform/observability"
	"github.com/kdsmith18542/liveform/product"
	"github.com/kdsmith18542/liveform/registration"
)

// Form is the surface the shell drives. Both view-models implement it.
type Form interface {
	form.Settable
	Name() string
	Value(field string) (string, error)
	Errors(field string) []string
	CanSubmit() bool
	Submit(ctx context.Context) (string, error)
	Reset()
	OnErrorsChanged(h notify.Handler) *notify.Subscription
}

// Kind selects the prompt used for a field.
type Kind int

const (
	KindText Kind = iota
	KindSecret
	KindBool
	KindMultiline
	KindChoice
)

// Page describes how a Form is presented. Title, Submit, Labels and
// ChoiceLabels are message keys or key prefixes.
type Page struct {
	Form         Form
	Title        string
	Submit       string
	Labels       string
	Kinds        map[string]Kind
	Choices      map[string][]string
	ChoiceLabels string

	command *Command
	notices []string
}

// NewPage wires a page's submit command to f.
func NewPage(f Form, title, submit, labels string) *Page {
	p := &Page{
		Form:    f,
		Title:   title,
		Submit:  submit,
		Labels:  labels,
		Kinds:   map[string]Kind{},
		Choices: map[string][]string{},
	}
	p.command = NewCommand(f.Submit, f.CanSubmit)
	return p
}

// Command returns the page's guarded submit command.
func (p *Page) Command() *Command { return p.command }

// RegistrationPage presents the registration form. Password resets are
// surfaced as a notice, since a terminal cannot clear an earlier prompt.
func RegistrationPage(vm *registration.ViewModel) *Page {
	p := NewPage(vm, "registration.title", "registration.submit", "registration.label.")
	p.Kinds[registration.FieldPassword] = KindSecret
	p.Kinds[registration.FieldConfirmPassword] = KindSecret
	p.Kinds[registration.FieldAcceptTerms] = KindBool
	vm.OnPasswordReset(func() {
		p.notices = append(p.notices, "shell.password_cleared")
	})
	return p
}

// ProductPage presents the product form.
func ProductPage(vm *product.ViewModel) *Page {
	p := NewPage(vm, "product.title", "product.submit", "product.label.")
	p.Kinds[product.FieldDescription] = KindMultiline
	p.Kinds[product.FieldCategory] = KindChoice
	p.Choices[product.FieldCategory] = product.Categories
	p.ChoiceLabels = "category."
	return p
}

// Session runs the navigation menu and the form pages.
type Session struct {
	driver   PromptDriver
	tr       form.Translator
	pages    []*Page
	sanitize map[string]string
	log      zerolog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSanitizers sets per-field sanitizer chains applied to prompt input.
func WithSanitizers(chains map[string]string) SessionOption {
	return func(s *Session) {
		s.sanitize = chains
	}
}

// NewSession creates a session over pages. tr renders the shell's own
// texts; the forms carry their own translators.
func NewSession(driver PromptDriver, tr form.Translator, pages []*Page, opts ...SessionOption) *Session {
	if tr == nil {
		tr = form.KeyTranslator
	}
	s := &Session{
		driver: driver,
		tr:     tr,
		pages:  pages,
		log:    observability.Logger().With().Str("component", "shell").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run shows the navigation menu until the user quits. ErrAborted is
// returned when the user interrupts a prompt.
func (s *Session) Run(ctx context.Context) error {
	for {
		options := make([]string, 0, len(s.pages)+1)
		for _, p := range s.pages {
			options = append(options, s.tr.T(p.Title, nil))
		}
		options = append(options, s.tr.T("menu.quit", nil))

		idx, err := s.driver.Select(ctx, SelectConfig{
			Message: s.tr.T("menu.prompt", nil),
			Options: options,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(s.pages) {
			return nil
		}
		if err := s.RunPage(ctx, s.pages[idx]); err != nil {
			return err
		}
	}
}

// RunPage drives one form until the user goes back.
func (s *Session) RunPage(ctx context.Context, p *Page) error {
	var touched []string
	sub := p.Form.OnErrorsChanged(func(field string) {
		for _, f := range touched {
			if f == field {
				return
			}
		}
		touched = append(touched, field)
	})
	defer sub.Unsubscribe()

	if err := s.driver.Info(ctx, s.tr.T(p.Title, nil)); err != nil {
		return err
	}

	for {
		fields := p.Form.Fields()
		options := make([]string, 0, len(fields)+3)
		for _, f := range fields {
			options = append(options, s.fieldLine(p, f))
		}
		options = append(options,
			s.tr.T(p.Submit, nil),
			s.tr.T("shell.reset", nil),
			s.tr.T("shell.back", nil),
		)

		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:  s.tr.T("shell.action", nil),
			Options:  options,
			PageSize: len(options),
		})
		if err != nil {
			return err
		}

		touched = touched[:0]
		switch {
		case idx >= 0 && idx < len(fields):
			if err := s.edit(ctx, p, fields[idx]); err != nil {
				return err
			}
			if err := s.report(ctx, p, touched); err != nil {
				return err
			}
		case idx == len(fields):
			if err := s.submit(ctx, p); err != nil {
				return err
			}
		case idx == len(fields)+1:
			p.Form.Reset()
			s.log.Debug().Str("form.name", p.Form.Name()).Msg("form reset")
		default:
			return nil
		}

		if err := s.flushNotices(ctx, p); err != nil {
			return err
		}
	}
}

func (s *Session) label(p *Page, field string) string {
	return s.tr.T(p.Labels+field, nil)
}

// display renders a field value for the menu.
func (s *Session) display(p *Page, field string) string {
	value, err := p.Form.Value(field)
	if err != nil {
		return ""
	}
	switch p.Kinds[field] {
	case KindSecret:
		return strings.Repeat("*", form.Length(value))
	case KindBool:
		if value == "true" {
			return s.tr.T("shell.yes", nil)
		}
		return s.tr.T("shell.no", nil)
	case KindChoice:
		if value == "" {
			return ""
		}
		return s.tr.T(p.ChoiceLabels+value, nil)
	case KindMultiline:
		if first, _, found := strings.Cut(value, "\n"); found {
			return first + " ..."
		}
		return value
	default:
		return value
	}
}

func (s *Session) fieldLine(p *Page, field string) string {
	line := s.label(p, field) + ": " + s.display(p, field)
	if msgs := p.Form.Errors(field); len(msgs) > 0 {
		line += "  ✗ " + msgs[0]
	}
	return line
}

func (s *Session) edit(ctx context.Context, p *Page, field string) error {
	label := s.label(p, field)
	current, _ := p.Form.Value(field)

	var value string
	var err error
	switch p.Kinds[field] {
	case KindSecret:
		value, err = s.driver.Password(ctx, InputConfig{Message: label})
	case KindBool:
		var b bool
		b, err = s.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: current == "true"})
		value = strconv.FormatBool(b)
	case KindMultiline:
		value, err = s.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: current})
	case KindChoice:
		codes := p.Choices[field]
		options := make([]string, len(codes))
		defaultIndex := -1
		for i, code := range codes {
			options[i] = s.tr.T(p.ChoiceLabels+code, nil)
			if code == current {
				defaultIndex = i
			}
		}
		var idx int
		idx, err = s.driver.Select(ctx, SelectConfig{Message: label, Options: options, DefaultIndex: defaultIndex})
		if err == nil && idx >= 0 && idx < len(codes) {
			value = codes[idx]
		}
	default:
		value, err = s.driver.Input(ctx, InputConfig{Message: label, Default: current})
	}
	if err != nil {
		return err
	}

	value = form.Sanitize(value, s.sanitize[field])
	if err := p.Form.SetField(field, value); err != nil {
		s.log.Debug().Err(err).Str("form.name", p.Form.Name()).Str("field", field).Msg("rejected input")
		return s.driver.Info(ctx, s.tr.T("shell.invalid", map[string]interface{}{
			"Field": label,
			"Value": value,
		}))
	}
	return nil
}

// report re-reads the errors of every field the last edit touched.
func (s *Session) report(ctx context.Context, p *Page, fields []string) error {
	for _, field := range fields {
		msgs := p.Form.Errors(field)
		if len(msgs) == 0 {
			if err := s.driver.Info(ctx, "  ✓ "+s.label(p, field)); err != nil {
				return err
			}
			continue
		}
		for _, msg := range strings.Split(form.FormatErrors(msgs), "\n") {
			if err := s.driver.Info(ctx, "  ✗ "+s.label(p, field)+": "+msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Session) reportAll(ctx context.Context, p *Page) error {
	var failing []string
	for _, field := range p.Form.Fields() {
		if len(p.Form.Errors(field)) > 0 {
			failing = append(failing, field)
		}
	}
	return s.report(ctx, p, failing)
}

func (s *Session) submit(ctx context.Context, p *Page) error {
	if !p.command.CanExecute() {
		if p.command.Running() {
			return s.driver.Info(ctx, s.tr.T("shell.busy", nil))
		}
		if err := s.driver.Info(ctx, s.tr.T("shell.blocked", nil)); err != nil {
			return err
		}
		return s.reportAll(ctx, p)
	}

	result, err := p.command.Execute(ctx)
	switch {
	case errors.Is(err, ErrBusy):
		return s.driver.Info(ctx, s.tr.T("shell.busy", nil))
	case errors.Is(err, form.ErrValidationFailed):
		if err := s.driver.Info(ctx, s.tr.T("shell.blocked", nil)); err != nil {
			return err
		}
		return s.reportAll(ctx, p)
	case err != nil:
		return err
	}
	return s.driver.Info(ctx, result)
}

func (s *Session) flushNotices(ctx context.Context, p *Page) error {
	notices := p.notices
	p.notices = nil
	for _, key := range notices {
		if err := s.driver.Info(ctx, s.tr.T(key, nil)); err != nil {
			return err
		}
	}
	return nil
}

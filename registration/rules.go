package registration

import (
	"time"

	"github.com/kdsmith18542/liveform/form"
)

// Field names, in declaration order.
const (
	FieldUsername        = "username"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldEmail           = "email"
	FieldBirthDate       = "birthDate"
	FieldAcceptTerms     = "acceptTerms"
)

// Limits enforced by the rule set.
const (
	MinUsernameLength = 4
	MaxUsernameLength = 20
	MinPasswordLength = 6
	AdultAge          = 18
	MaxAge            = 120
)

// Input is what the rules evaluate: the form plus the calendar date the
// evaluation happens on.
type Input struct {
	Form
	Today time.Time
}

var rules = newRules()

// Rules returns the registration rule set. It is shared and read-only.
func Rules() *form.RuleSet[Input] {
	return rules
}

func newRules() *form.RuleSet[Input] {
	type check = form.Check[Input]

	return form.NewRuleSet[Input]().
		Field(FieldUsername,
			check{
				Fails:   func(in Input) bool { return in.Username == "" },
				Message: "registration.username.required",
			},
			check{
				Fails:   func(in Input) bool { return form.Length(in.Username) < MinUsernameLength },
				Message: "registration.username.too_short",
				Params:  map[string]interface{}{"Min": MinUsernameLength},
			},
			check{
				Fails:   func(in Input) bool { return form.Length(in.Username) > MaxUsernameLength },
				Message: "registration.username.too_long",
				Params:  map[string]interface{}{"Max": MaxUsernameLength},
			},
		).
		Field(FieldPassword,
			check{
				Fails:   func(in Input) bool { return in.Password == "" },
				Message: "registration.password.required",
			},
			check{
				Fails:   func(in Input) bool { return form.Length(in.Password) < MinPasswordLength },
				Message: "registration.password.too_short",
				Params:  map[string]interface{}{"Min": MinPasswordLength},
			},
		).
		Field(FieldConfirmPassword,
			check{
				Fails:   func(in Input) bool { return in.ConfirmPassword == "" },
				Message: "registration.confirmPassword.required",
			},
			check{
				Fails:   func(in Input) bool { return in.ConfirmPassword != in.Password },
				Message: "registration.confirmPassword.mismatch",
			},
		).
		Field(FieldEmail,
			check{
				Fails:   func(in Input) bool { return in.Email == "" },
				Message: "registration.email.required",
			},
			check{
				Fails:   func(in Input) bool { return !form.IsEmail(in.Email) },
				Message: "registration.email.invalid",
			},
		).
		Field(FieldBirthDate,
			check{
				Fails:   func(in Input) bool { return form.DateOf(in.BirthDate).After(in.Today) },
				Message: "registration.birthDate.future",
			},
			check{
				Fails:   func(in Input) bool { return form.DateOf(in.BirthDate).Before(form.AddYears(in.Today, -MaxAge)) },
				Message: "registration.birthDate.too_old",
			},
		).
		Field(FieldAcceptTerms,
			check{
				Fails:   func(in Input) bool { return !in.AcceptTerms && isMinor(in.BirthDate, in.Today) },
				Message: "registration.acceptTerms.minor",
				Params:  map[string]interface{}{"Age": AdultAge},
			},
			check{
				Fails:   func(in Input) bool { return !in.AcceptTerms },
				Message: "registration.acceptTerms.required",
			},
		).
		DependsOn(FieldConfirmPassword, FieldPassword).
		DependsOn(FieldAcceptTerms, FieldBirthDate)
}

// isMinor reports whether someone born on birthDate is younger than
// AdultAge on today. The eighteenth birthday itself counts as adult.
func isMinor(birthDate, today time.Time) bool {
	return form.DateOf(birthDate).After(form.AddYears(today, -AdultAge))
}

package registration

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdsmith18542/liveform/form"
	"github.com/kdsmith18542/liveform/i18n"
)

const (
	testEmail    = "test@example.com"
	testUsername = "validuser"
	testPassword = "secret1"
)

var fixedNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func today() time.Time { return form.Today(fixedNow) }

// newKeyed returns a view-model whose messages are the untranslated keys.
func newKeyed() *ViewModel {
	return New(WithClock(clock), WithTranslator(form.KeyTranslator))
}

func fillValid(vm *ViewModel) {
	vm.SetUsername(testUsername)
	vm.SetPassword(testPassword)
	vm.SetConfirmPassword(testPassword)
	vm.SetEmail("a@b.com")
	vm.SetBirthDate(today().AddDate(-25, 0, 0))
	vm.SetAcceptTerms(true)
}

func TestNew_Defaults(t *testing.T) {
	vm := newKeyed()

	assert.Equal(t, time.Date(2006, 6, 15, 0, 0, 0, 0, time.UTC), vm.BirthDate())
	assert.False(t, vm.AcceptTerms())
	assert.Empty(t, vm.Username())
	assert.False(t, vm.HasErrors(), "nothing is validated on construction")
	assert.Equal(t, []string{
		FieldUsername, FieldPassword, FieldConfirmPassword, FieldEmail, FieldBirthDate, FieldAcceptTerms,
	}, vm.Fields())
}

func TestDefaults_LeapDay(t *testing.T) {
	got := Defaults(time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2006, 2, 28, 0, 0, 0, 0, time.UTC), got.BirthDate)
}

func TestAcceptTerms_MinorOnLeapDay(t *testing.T) {
	leapDay := time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC)
	vm := New(WithClock(func() time.Time { return leapDay }), WithTranslator(form.KeyTranslator))

	// Turns eighteen tomorrow.
	vm.SetBirthDate(time.Date(2006, 3, 1, 0, 0, 0, 0, time.UTC))
	vm.SetAcceptTerms(true)
	vm.SetAcceptTerms(false)
	assert.Equal(t, []string{"registration.acceptTerms.minor"}, vm.Errors(FieldAcceptTerms))

	// Eighteenth birthday counted as Feb 28 in a non-leap year.
	vm.SetBirthDate(time.Date(2006, 2, 28, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, []string{"registration.acceptTerms.required"}, vm.Errors(FieldAcceptTerms))
}

func TestRules_ZeroValueFormFailsEveryField(t *testing.T) {
	errs := Rules().Validate(Input{Today: today()}, nil)

	for _, field := range Rules().Fields() {
		assert.NotEmpty(t, errs[field], "field %s", field)
	}
	assert.Equal(t, []string{"registration.birthDate.too_old"}, errs[FieldBirthDate])
	assert.Equal(t, []string{"registration.acceptTerms.required"}, errs[FieldAcceptTerms])
}

func TestEndToEnd_EmptyThenValid(t *testing.T) {
	vm := newKeyed()
	ctx := context.Background()

	assert.False(t, vm.ValidateAll(ctx))
	assert.True(t, vm.HasErrors())
	want := []string{FieldUsername, FieldPassword, FieldConfirmPassword, FieldEmail, FieldAcceptTerms}
	if diff := cmp.Diff(want, vm.ErrorFields()); diff != "" {
		t.Errorf("error fields mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, vm.Errors(FieldBirthDate), "the default birth date is valid")

	fillValid(vm)

	assert.False(t, vm.HasErrors())
	assert.True(t, vm.CanRegister())
}

func TestUsernameBoundaries(t *testing.T) {
	tests := []struct {
		value string
		want  []string
	}{
		{"", []string{"registration.username.required"}},
		{"abc", []string{"registration.username.too_short"}},
		{"abcd", nil},
		{strings.Repeat("a", 20), nil},
		{strings.Repeat("a", 21), []string{"registration.username.too_long"}},
		{"用户名字", nil},
		{"用户名", []string{"registration.username.too_short"}},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			vm := newKeyed()
			vm.SetUsername("seed")
			vm.SetUsername(tt.value)
			assert.Equal(t, tt.want, vm.Errors(FieldUsername))
		})
	}
}

func TestPasswordConfirmationCrossField(t *testing.T) {
	vm := newKeyed()

	vm.SetPassword("abc123")
	vm.SetConfirmPassword("abc123")
	assert.Nil(t, vm.Errors(FieldConfirmPassword))

	vm.SetPassword("abc1234")
	assert.Equal(t, []string{"registration.confirmPassword.mismatch"}, vm.Errors(FieldConfirmPassword))
	assert.Nil(t, vm.Errors(FieldPassword))

	vm.SetPassword("abc123")
	assert.Nil(t, vm.Errors(FieldConfirmPassword))
}

func TestConfirmPasswordEmpty(t *testing.T) {
	vm := newKeyed()

	vm.SetPassword("abc123")

	assert.Equal(t, []string{"registration.confirmPassword.required"}, vm.Errors(FieldConfirmPassword))
}

func TestPasswordTooShort(t *testing.T) {
	vm := newKeyed()

	vm.SetPassword("12345")
	assert.Equal(t, []string{"registration.password.too_short"}, vm.Errors(FieldPassword))

	vm.SetPassword("")
	assert.Equal(t, []string{"registration.password.required"}, vm.Errors(FieldPassword))
}

func TestEmail(t *testing.T) {
	vm := newKeyed()

	vm.SetEmail("not-an-email")
	assert.Equal(t, []string{"registration.email.invalid"}, vm.Errors(FieldEmail))

	vm.SetEmail(testEmail)
	assert.Nil(t, vm.Errors(FieldEmail))

	vm.SetEmail("")
	assert.Equal(t, []string{"registration.email.required"}, vm.Errors(FieldEmail))
}

func TestBirthDate(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want []string
	}{
		{"today", today(), nil},
		{"tomorrow", today().AddDate(0, 0, 1), []string{"registration.birthDate.future"}},
		{"later today still today", fixedNow.Add(10 * time.Hour).Add(-time.Minute), nil},
		{"exactly max age", today().AddDate(-MaxAge, 0, 0), nil},
		{"beyond max age", today().AddDate(-MaxAge, 0, -1), []string{"registration.birthDate.too_old"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newKeyed()
			vm.SetBirthDate(tt.date)
			assert.Equal(t, tt.want, vm.Errors(FieldBirthDate))
		})
	}
}

func TestAcceptTerms_AdultBoundaryIsExclusive(t *testing.T) {
	vm := newKeyed()

	// Eighteenth birthday today: an adult.
	vm.SetBirthDate(today().AddDate(-AdultAge, 0, 0))
	vm.SetAcceptTerms(true)
	vm.SetAcceptTerms(false)
	assert.Equal(t, []string{"registration.acceptTerms.required"}, vm.Errors(FieldAcceptTerms))

	// One day short of eighteen: a minor. Changing the birth date alone
	// re-validates the terms.
	vm.SetBirthDate(today().AddDate(-AdultAge, 0, 1))
	assert.Equal(t, []string{"registration.acceptTerms.minor"}, vm.Errors(FieldAcceptTerms))

	vm.SetAcceptTerms(true)
	assert.Nil(t, vm.Errors(FieldAcceptTerms))
}

func TestSetters_CompareBeforeFire(t *testing.T) {
	vm := newKeyed()
	var fields []string
	vm.OnFieldChanged(func(field string) { fields = append(fields, field) })

	assert.True(t, vm.SetUsername("gopher"))
	assert.False(t, vm.SetUsername("gopher"))
	assert.False(t, vm.SetBirthDate(vm.BirthDate().Add(3*time.Hour)), "same calendar date")
	assert.False(t, vm.SetAcceptTerms(false))

	assert.Equal(t, []string{FieldUsername}, fields)
}

func TestErrorsSettleBeforeFieldObservers(t *testing.T) {
	vm := newKeyed()
	var seen []string
	vm.OnFieldChanged(func(field string) {
		seen = append(seen, field+":"+form.FormatErrors(vm.Errors(field)))
	})
	var errorEvents []string
	vm.OnErrorsChanged(func(field string) { errorEvents = append(errorEvents, field) })

	vm.SetPassword("abc")

	assert.Equal(t, []string{"password:registration.password.too_short"}, seen)
	assert.Equal(t, []string{FieldPassword, FieldConfirmPassword}, errorEvents)
}

func TestSetField(t *testing.T) {
	vm := newKeyed()

	require.NoError(t, vm.SetField(FieldBirthDate, " 2000-01-02 "))
	assert.Equal(t, time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC), vm.BirthDate())

	require.NoError(t, vm.SetField(FieldAcceptTerms, "true"))
	assert.True(t, vm.AcceptTerms())

	require.NoError(t, vm.SetField(FieldEmail, "x@y.org"))
	v, err := vm.Value(FieldEmail)
	require.NoError(t, err)
	assert.Equal(t, "x@y.org", v)

	v, err = vm.Value(FieldBirthDate)
	require.NoError(t, err)
	assert.Equal(t, "2000-01-02", v)

	err = vm.SetField(FieldBirthDate, "02/01/2000")
	assert.ErrorIs(t, err, form.ErrInvalidInput)
	assert.Contains(t, err.Error(), FieldBirthDate)

	assert.ErrorIs(t, vm.SetField(FieldAcceptTerms, "maybe"), form.ErrInvalidInput)
	assert.ErrorIs(t, vm.SetField("nickname", "x"), form.ErrUnknownField)
	_, err = vm.Value("nickname")
	assert.ErrorIs(t, err, form.ErrUnknownField)
}

func TestRegister_Success(t *testing.T) {
	vm := New(WithClock(clock))
	fillValid(vm)

	resets := 0
	vm.OnPasswordReset(func() { resets++ })

	receipt, err := vm.Register(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Registration succeeded! Username: validuser, Email: a@b.com", vm.Result())
	assert.Equal(t, FormName, receipt.Form)
	assert.Equal(t, vm.Result(), receipt.Message)
	assert.NotEqual(t, uuid.Nil, receipt.ID)
	assert.Equal(t, fixedNow, receipt.At)

	assert.Equal(t, 1, resets)
	assert.Equal(t, Defaults(fixedNow), vm.Snapshot())
	assert.False(t, vm.HasErrors())
}

func TestRegister_InvalidFormIsRefused(t *testing.T) {
	vm := newKeyed()
	vm.SetUsername("gopher")

	_, err := vm.Register(context.Background())

	assert.True(t, errors.Is(err, form.ErrValidationFailed))
	assert.Equal(t, "gopher", vm.Username(), "a refused submit keeps the input")
	assert.Empty(t, vm.Result())
	assert.True(t, vm.HasErrors())
}

func TestCanRegister_Revalidates(t *testing.T) {
	vm := newKeyed()

	assert.False(t, vm.HasErrors())
	assert.False(t, vm.CanRegister(), "untouched required fields block registration")
	assert.True(t, vm.HasErrors())
}

func TestReset(t *testing.T) {
	vm := newKeyed()
	vm.SetUsername("ab")
	vm.SetBirthDate(today().AddDate(1, 0, 0))
	require.True(t, vm.HasErrors())

	var cleared []string
	vm.OnErrorsChanged(func(field string) { cleared = append(cleared, field) })
	resets := 0
	sub := vm.OnPasswordReset(func() { resets++ })

	vm.Reset()
	sub.Unsubscribe()
	vm.Reset()

	assert.False(t, vm.HasErrors())
	assert.Equal(t, Defaults(fixedNow), vm.Snapshot())
	assert.Equal(t, 1, resets)
	assert.NotEmpty(t, cleared)
}

func TestChineseMessages(t *testing.T) {
	vm := New(WithClock(clock), WithTranslator(i18n.Default().Translator("zh")))

	vm.SetUsername("abc")
	vm.SetEmail("bad")
	vm.SetBirthDate(today().AddDate(-10, 0, 0))

	assert.Equal(t, []string{"用户名长度不能少于4个字符"}, vm.Errors(FieldUsername))
	assert.Equal(t, []string{"邮箱格式不正确"}, vm.Errors(FieldEmail))
	assert.Equal(t, []string{"未满18岁用户必须接受服务条款和家长同意声明"}, vm.Errors(FieldAcceptTerms))
}

func TestSetTranslator_RerendersErrors(t *testing.T) {
	vm := New(WithClock(clock))
	vm.SetUsername("abc")
	assert.Equal(t, []string{"Username must be at least 4 characters"}, vm.Errors(FieldUsername))

	vm.SetTranslator(i18n.Default().Translator("zh"))

	assert.Equal(t, []string{"用户名长度不能少于4个字符"}, vm.Errors(FieldUsername))
	assert.Nil(t, vm.Errors(FieldEmail), "untouched fields stay clean")
}

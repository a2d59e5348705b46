package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdsmith18542/liveform/config"
	"github.com/kdsmith18542/liveform/form"
	"github.com/kdsmith18542/liveform/i18n"
	"github.com/kdsmith18542/liveform/observability"
	"github.com/kdsmith18542/liveform/product"
	"github.com/kdsmith18542/liveform/registration"
	"github.com/kdsmith18542/liveform/schema"
)

// IntegrationTestSuite tests the complete liveform workflow
type IntegrationTestSuite struct {
	manager    *i18n.Manager
	localesDir string
	now        func() time.Time
}

// TestIntegration_CompleteWorkflow tests both forms end to end
func TestIntegration_CompleteWorkflow(t *testing.T) {
	suite := setupIntegrationSuite(t)

	t.Run("UserRegistration", func(t *testing.T) {
		suite.testUserRegistration(t)
	})

	t.Run("ProductSave", func(t *testing.T) {
		suite.testProductSave(t)
	})

	t.Run("Internationalization", func(t *testing.T) {
		suite.testInternationalization(t)
	})

	t.Run("Observability", func(t *testing.T) {
		suite.testObservability(t)
	})
}

// TestIntegration_CrossPackageFeatures tests features that span multiple packages
func TestIntegration_CrossPackageFeatures(t *testing.T) {
	suite := setupIntegrationSuite(t)

	t.Run("SchemaAgreesWithRules", func(t *testing.T) {
		suite.testSchemaAgreesWithRules(t)
	})
}

func setupIntegrationSuite(t *testing.T) *IntegrationTestSuite {
	manager, err := i18n.NewDefaultManager()
	require.NoError(t, err)

	localesDir := filepath.Join(t.TempDir(), "locales")
	require.NoError(t, os.MkdirAll(localesDir, 0o755))
	createTestLocaleFiles(t, localesDir)

	return &IntegrationTestSuite{
		manager:    manager,
		localesDir: localesDir,
		now:        func() time.Time { return time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC) },
	}
}

func (suite *IntegrationTestSuite) testUserRegistration(t *testing.T) {
	vm := registration.New(
		registration.WithClock(suite.now),
		registration.WithTranslator(suite.manager.Translator("en")),
	)
	var changes []string
	vm.OnErrorsChanged(func(field string) { changes = append(changes, field) })

	// Typing the password first flags the still-empty confirmation.
	vm.SetPassword("secret1")
	assert.Equal(t, []string{registration.FieldConfirmPassword}, changes)
	assert.Equal(t, []string{"Please confirm the password"}, vm.Errors(registration.FieldConfirmPassword))

	vm.SetConfirmPassword("secret2")
	assert.Equal(t, []string{"The two passwords do not match"}, vm.Errors(registration.FieldConfirmPassword))

	vm.SetConfirmPassword("secret1")
	assert.Empty(t, vm.Errors(registration.FieldConfirmPassword))

	vm.SetUsername("validuser")
	vm.SetEmail("a@b.com")
	vm.SetAcceptTerms(true)
	require.True(t, vm.CanRegister())

	receipt, err := vm.Register(context.Background())
	require.NoError(t, err)
	assert.Equal(t, registration.FormName, receipt.Form)
	assert.Equal(t, "Registration succeeded! Username: validuser, Email: a@b.com", receipt.Message)
	assert.Equal(t, receipt.Message, vm.Result())
	assert.Empty(t, vm.Password())
	assert.False(t, vm.HasErrors())
}

func (suite *IntegrationTestSuite) testProductSave(t *testing.T) {
	var slept time.Duration
	vm := product.New(
		product.WithClock(suite.now),
		product.WithTranslator(suite.manager.Translator("zh")),
		product.WithSaveDelay(time.Second),
		product.WithSleep(func(d time.Duration) { slept = d }),
	)
	var results []string
	vm.OnFieldChanged(func(field string) {
		if field == product.FieldResult {
			results = append(results, vm.Result())
		}
	})

	values, err := form.DecodeDocument(strings.NewReader(`
name: "  Desk   Lamp "
price: 49.90
releaseDate: 2024-07-01
stockLevel: 10
description: "<p>Warm light</p>"
category: furniture
`))
	require.NoError(t, err)
	problems := form.Apply(vm, values, config.DefaultConfig().Sanitize)
	require.Empty(t, problems)

	assert.Equal(t, "Desk Lamp", vm.ProductName())
	assert.True(t, vm.Price().Equal(decimal.RequireFromString("49.9")))
	assert.Equal(t, "Warm light", vm.Description())

	receipt, err := vm.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Second, slept)
	assert.Equal(t, []string{"正在保存产品...", `产品 "Desk Lamp" 保存成功！`}, results)
	assert.Equal(t, product.FormName, receipt.Form)
	assert.Equal(t, "Desk Lamp", vm.ProductName(), "saving keeps the form")
}

func (suite *IntegrationTestSuite) testInternationalization(t *testing.T) {
	manager, err := i18n.NewDefaultManager()
	require.NoError(t, err)
	require.NoError(t, manager.LoadDir(suite.localesDir))

	assert.Contains(t, manager.GetAvailableLocales(), "fr")

	locale := manager.DetectLocale(func(name string) (string, bool) {
		if name == "LANG" {
			return "fr_FR.UTF-8", true
		}
		return "", false
	})
	require.Equal(t, "fr", locale)

	vm := registration.New(
		registration.WithClock(suite.now),
		registration.WithTranslator(manager.Translator(locale)),
	)
	vm.ValidateAll(context.Background())

	// The partial catalogue supplies one message; the rest fall back to English.
	assert.Equal(t, []string{"Le nom d'utilisateur est requis"}, vm.Errors(registration.FieldUsername))
	assert.Equal(t, []string{"Password is required"}, vm.Errors(registration.FieldPassword))

	missing, err := i18n.FindMissingKeys(os.DirFS(suite.localesDir), ".")
	require.NoError(t, err)
	assert.Empty(t, missing["fr"], "a lone catalogue is complete by itself")
}

func (suite *IntegrationTestSuite) testObservability(t *testing.T) {
	rec := &recordingObserver{}
	observability.SetObserver(rec)
	form.EnableObservability()
	t.Cleanup(func() {
		observability.SetObserver(nil)
		form.RegisterObserver(nil)
	})

	vm := registration.New(registration.WithClock(suite.now), registration.WithTranslator(suite.manager.Translator("en")))
	vm.SetUsername("abc")

	_, err := vm.Register(context.Background())
	require.ErrorIs(t, err, form.ErrValidationFailed)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"registration/username"}, rec.fieldChanges)
	assert.Equal(t, []int{5}, rec.validationErrorCounts, "every field but birthDate fails")
	assert.Len(t, rec.validationErrors, 5)
	assert.Equal(t, []bool{false}, rec.submits)
}

func (suite *IntegrationTestSuite) testSchemaAgreesWithRules(t *testing.T) {
	today := suite.now()
	base := registration.Form{
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Email:           "a@b.com",
		BirthDate:       time.Date(2001, 4, 5, 0, 0, 0, 0, time.UTC),
		AcceptTerms:     true,
	}
	for _, username := range []string{"abc", "abcd", strings.Repeat("a", 20), strings.Repeat("a", 21), "用户名称"} {
		in := base
		in.Username = username
		_, ruleFails := registration.Rules().Validate(registration.Input{Form: in, Today: today}, nil)[registration.FieldUsername]

		doc := map[string]interface{}{
			"username":        username,
			"password":        in.Password,
			"confirmPassword": in.ConfirmPassword,
			"email":           in.Email,
			"birthDate":       "2001-04-05",
			"acceptTerms":     true,
		}
		schemaFails := schema.Check(registration.FormName, doc) != nil
		assert.Equal(t, ruleFails, schemaFails, "username %q", username)
	}

	for _, price := range []string{"0", "0.01", "100000", "100000.01"} {
		p := decimal.RequireFromString(price)
		in := product.Input{
			Form:  product.Form{Name: "Lamp", Price: p, ReleaseDate: today, Category: "books"},
			Today: today,
		}
		_, ruleFails := product.Rules().Validate(in, nil)[product.FieldPrice]

		f, _ := p.Float64()
		doc := map[string]interface{}{"name": "Lamp", "price": f, "category": "books"}
		schemaFails := schema.Check(product.FormName, doc) != nil
		assert.Equal(t, ruleFails, schemaFails, "price %s", price)
	}
}

func createTestLocaleFiles(t *testing.T, localesDir string) {
	fr := `[registration.username]
required = "Le nom d'utilisateur est requis"
`
	require.NoError(t, os.WriteFile(filepath.Join(localesDir, "fr.toml"), []byte(fr), 0o644))
}

// recordingObserver captures the events the form bridge forwards.
type recordingObserver struct {
	mu                    sync.Mutex
	fieldChanges          []string
	validationErrorCounts []int
	validationErrors      []string
	submits               []bool
}

func (r *recordingObserver) OnFormValidationStart(ctx context.Context, formName string) {}

func (r *recordingObserver) OnFormValidationEnd(ctx context.Context, formName string, errorCount int, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validationErrorCounts = append(r.validationErrorCounts, errorCount)
}

func (r *recordingObserver) OnFormValidationError(ctx context.Context, formName string, field string, error string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validationErrors = append(r.validationErrors, field)
}

func (r *recordingObserver) OnFieldChanged(ctx context.Context, formName string, field string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fieldChanges = append(r.fieldChanges, formName+"/"+field)
}

func (r *recordingObserver) OnSubmitStart(ctx context.Context, formName string) {}

func (r *recordingObserver) OnSubmitEnd(ctx context.Context, formName string, duration time.Duration, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submits = append(r.submits, success)
}

func (r *recordingObserver) OnTranslationStart(ctx context.Context, locale string, key string) {}

func (r *recordingObserver) OnTranslationEnd(ctx context.Context, locale string, key string, duration time.Duration) {
}

func (r *recordingObserver) OnLocaleDetection(ctx context.Context, detectedLocale string, fallbackUsed bool) {
}

func BenchmarkRegistration_FieldChange(b *testing.B) {
	vm := registration.New(registration.WithClock(func() time.Time {
		return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	}))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%2 == 0 {
			vm.SetPassword("secret1")
		} else {
			vm.SetPassword("secret2")
		}
	}
}

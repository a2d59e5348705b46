package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_EmbeddedCatalogues(t *testing.T) {
	manager := Default()

	assert.Equal(t, []string{"en", "zh"}, manager.GetAvailableLocales())
	assert.Same(t, manager, Default())

	en := manager.Translator("en")
	zh := manager.Translator("zh")

	assert.Equal(t, "Username is required", en.T("registration.username.required", nil))
	assert.Equal(t, "用户名不能为空", zh.T("registration.username.required", nil))
	assert.Equal(t, "用户名长度不能少于4个字符", zh.T("registration.username.too_short", map[string]interface{}{"Min": 4}))
	assert.Equal(t, "未满18岁用户必须接受服务条款和家长同意声明", zh.T("registration.acceptTerms.minor", map[string]interface{}{"Age": 18}))
	assert.Equal(t, `产品 "台灯" 保存成功！`, zh.T("product.saved", map[string]interface{}{"Name": "台灯"}))
	assert.Equal(t, "Electronics", en.T("category.electronics", nil))
}

func TestDefault_CataloguesAreComplete(t *testing.T) {
	missing, err := FindMissingKeys(LocalesFS, LocalesDir)
	require.NoError(t, err)

	for locale, keys := range missing {
		assert.Empty(t, keys, "locale %s is missing keys", locale)
	}

	reports, err := LintLocaleFiles(LocalesFS, LocalesDir)
	require.NoError(t, err)
	assert.False(t, HasIssues(reports), "%+v", reports)
}

func TestNewManagerFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"l/en.toml":  {Data: []byte(`hello = "Hello"`)},
		"l/de.toml":  {Data: []byte(`hello = "Hallo"`)},
		"l/skip.txt": {Data: []byte(`nope`)},
	}

	manager, err := NewManagerFromFS(fsys, "l")
	require.NoError(t, err)
	assert.Equal(t, []string{"de", "en"}, manager.GetAvailableLocales())
	assert.Equal(t, "Hallo", manager.Translator("de").T("hello", nil))

	_, err = NewManagerFromFS(fsys, "missing")
	assert.Error(t, err)

	_, err = NewManagerFromFS(fstest.MapFS{"l/en.toml": {Data: []byte(`x = `)}}, "l")
	assert.Error(t, err)
}

func TestNewDefaultManager_IsIndependent(t *testing.T) {
	manager, err := NewDefaultManager()
	require.NoError(t, err)

	manager.AddLocale("en", map[string]interface{}{"menu": map[string]interface{}{"quit": "Leave"}})

	assert.Equal(t, "Leave", manager.Translator("en").T("menu.quit", nil))
	assert.Equal(t, "Quit", Default().Translator("en").T("menu.quit", nil))
}

// Package i18n provides message catalogues for liveform.
//
// Features:
//   - TOML message bundles with nested keys, parsed with BurntSushi/toml
//   - Embedded English and Chinese catalogues for every validation message
//   - Locale detection from LC_ALL, LC_MESSAGES and LANG
//   - Live reloading of message bundles (development mode)
//   - Concurrency-safe; the watcher reloads catalogues from its own goroutine
//
// Example:
//
//	manager := i18n.Default()
//	tr := manager.Translator("zh")
//
//	msg := tr.T("registration.username.too_short", map[string]interface{}{
//	    "Min": 4,
//	})
//
// Locale files (e.g., en.toml):
//
//	[registration.username]
//	required = "Username is required"
//	too_short = "Username must be at least {{.Min}} characters"
package i18n

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/BurntSushi/toml"
)

// Manager holds all translation data and configuration.
// It is safe for concurrent use and should be initialized once at application startup.
type Manager struct {
	locales        map[string]*Locale
	defaultLocale  string
	fallbackLocale string
	mu             sync.RWMutex
}

// Locale represents a single locale with its messages.
type Locale struct {
	Code     string
	Messages map[string]interface{}
}

// Translator resolves messages for one locale. It looks the locale up on
// every call, so catalogue reloads are visible to existing translators.
type Translator struct {
	code    string
	manager *Manager
}

// NewManager creates a new i18n manager and loads translation files from the specified directory.
// The manager will automatically load all .toml files from the localesPath directory.
// Panics if the locales directory cannot be read or if locale files are invalid.
//
// Example:
//
//	manager := i18n.NewManager("./locales")
func NewManager(localesPath string) *Manager {
	manager := NewManagerEmpty()

	if err := manager.LoadDir(localesPath); err != nil {
		panic(fmt.Sprintf("Failed to load locales: %v", err))
	}

	return manager
}

// NewManagerEmpty creates a new i18n manager without loading any locale files.
// This is useful for testing or when you want to add locales programmatically.
func NewManagerEmpty() *Manager {
	return &Manager{
		locales:        make(map[string]*Locale),
		defaultLocale:  "en",
		fallbackLocale: "en",
	}
}

// NewManagerFromFS creates a new i18n manager from the .toml files in dir of fsys.
func NewManagerFromFS(fsys fs.FS, dir string) (*Manager, error) {
	manager := NewManagerEmpty()
	if err := manager.LoadFS(fsys, dir); err != nil {
		return nil, err
	}
	return manager, nil
}

// SetDefaultLocale sets the default locale for the manager.
// This locale will be used when no locale can be detected from the environment.
func (m *Manager) SetDefaultLocale(locale string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultLocale = locale
}

// SetFallbackLocale sets the fallback locale for the manager.
// This locale will be used when a requested locale is not available.
func (m *Manager) SetFallbackLocale(locale string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbackLocale = locale
}

// DefaultLocale returns the manager's default locale code.
func (m *Manager) DefaultLocale() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultLocale
}

// Translator returns a translator for locale. An empty or unknown locale
// resolves to the fallback locale.
//
// Example:
//
//	translator := manager.Translator("zh")
//	message := translator.T("product.category.required", nil)
func (m *Manager) Translator(locale string) *Translator {
	return &Translator{code: locale, manager: m}
}

// Locale returns the code of the catalogue the translator currently resolves to.
func (t *Translator) Locale() string {
	t.manager.mu.RLock()
	defer t.manager.mu.RUnlock()

	if loc := t.manager.getLocaleLocked(t.code); loc != nil {
		return loc.Code
	}
	return t.code
}

// T translates a message key with optional parameters.
// Returns the translated message with parameter substitution, or the key itself if no translation is found.
//
// Parameters are substituted using Go template syntax: {{.ParamName}}
func (t *Translator) T(key string, params map[string]interface{}) string {
	start := time.Now()
	ctx := context.Background()

	if obs := getObserver(); obs != nil {
		obs.OnTranslationStart(ctx, t.code, key)
		defer func() { obs.OnTranslationEnd(ctx, t.code, key, time.Since(start)) }()
	}

	message, ok := t.getMessage(key)
	if !ok {
		return key
	}

	return substituteParams(message, params)
}

// Has reports whether key resolves to a message.
func (t *Translator) Has(key string) bool {
	_, ok := t.getMessage(key)
	return ok
}

// getMessage retrieves a message from the current locale
func (t *Translator) getMessage(key string) (string, bool) {
	t.manager.mu.RLock()
	defer t.manager.mu.RUnlock()

	locale := t.manager.getLocaleLocked(t.code)
	if locale == nil {
		return "", false
	}
	if msg, ok := lookup(locale.Messages, key); ok {
		return msg, true
	}

	// Missing keys fall through to the fallback catalogue.
	if fallback := t.manager.locales[t.manager.fallbackLocale]; fallback != nil && fallback != locale {
		return lookup(fallback.Messages, key)
	}
	return "", false
}

func lookup(messages map[string]interface{}, key string) (string, bool) {
	// Split key by dots for nested access
	current := messages
	keys := strings.Split(key, ".")

	for i, k := range keys {
		val, ok := current[k]
		if !ok {
			return "", false
		}
		switch v := val.(type) {
		case string:
			return v, i == len(keys)-1
		case map[string]interface{}:
			current = v
		default:
			return "", false
		}
	}

	return "", false
}

// substituteParams substitutes parameters in a message template
func substituteParams(message string, params map[string]interface{}) string {
	if len(params) == 0 {
		return message
	}

	tmpl, err := template.New("message").Parse(message)
	if err != nil {
		return message
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, params); err != nil {
		return message
	}

	return buf.String()
}

// DetectLocale picks a locale from the POSIX locale variables, in the order
// LC_ALL, LC_MESSAGES, LANG. Values such as "zh_CN.UTF-8" resolve to "zh".
// The default locale is returned when nothing usable is set.
func (m *Manager) DetectLocale(lookupEnv func(string) (string, bool)) string {
	ctx := context.Background()
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}

	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		value, ok := lookupEnv(name)
		if !ok || value == "" {
			continue
		}
		code := languageCode(value)
		if code == "" {
			continue
		}
		if m.hasLocale(code) {
			if obs := getObserver(); obs != nil {
				obs.OnLocaleDetection(ctx, code, false)
			}
			return code
		}
	}

	detected := m.DefaultLocale()
	if obs := getObserver(); obs != nil {
		obs.OnLocaleDetection(ctx, detected, true)
	}
	return detected
}

// languageCode extracts the language from a POSIX locale name
// (e.g. "zh_CN.UTF-8" -> "zh"). C and POSIX carry no language.
func languageCode(value string) string {
	value = strings.SplitN(value, ".", 2)[0]
	value = strings.SplitN(value, "@", 2)[0]
	if value == "C" || value == "POSIX" {
		return ""
	}
	value = strings.SplitN(value, "_", 2)[0]
	value = strings.SplitN(value, "-", 2)[0]
	return strings.ToLower(value)
}

func (m *Manager) hasLocale(code string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.locales[code]
	return ok
}

// getLocaleLocked retrieves a locale by code, falling back to the fallback
// locale. Callers hold m.mu.
func (m *Manager) getLocaleLocked(code string) *Locale {
	if locale, exists := m.locales[code]; exists {
		return locale
	}

	if locale, exists := m.locales[m.fallbackLocale]; exists {
		return locale
	}

	return nil
}

// LoadDir loads all .toml locale files from the specified directory.
func (m *Manager) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		localeCode := strings.TrimSuffix(entry.Name(), ".toml")
		if err := m.loadLocaleFile(localeCode, filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to load locale %s: %w", localeCode, err)
		}
	}

	return nil
}

// LoadFS loads all .toml locale files from dir of fsys.
func (m *Manager) LoadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		localeCode := strings.TrimSuffix(entry.Name(), ".toml")
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read locale %s: %w", localeCode, err)
		}
		if err := m.AddLocaleData(localeCode, data); err != nil {
			return err
		}
	}

	return nil
}

// loadLocaleFile loads a single locale file
func (m *Manager) loadLocaleFile(code, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return m.AddLocaleData(code, data)
}

// AddLocaleData parses a TOML catalogue and installs it as locale code,
// replacing any previous catalogue for that code.
func (m *Manager) AddLocaleData(code string, data []byte) error {
	messages := make(map[string]interface{})
	if err := toml.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("failed to parse locale %s: %w", code, err)
	}
	m.AddLocale(code, messages)
	return nil
}

// AddLocale adds a locale programmatically
func (m *Manager) AddLocale(code string, messages map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.locales[code] = &Locale{
		Code:     code,
		Messages: messages,
	}
}

// GetAvailableLocales returns all available locale codes, sorted.
func (m *Manager) GetAvailableLocales() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	locales := make([]string, 0, len(m.locales))
	for code := range m.locales {
		locales = append(locales, code)
	}
	sort.Strings(locales)

	return locales
}

// Keys returns the sorted, dotted message keys of locale code.
func (m *Manager) Keys(code string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	locale, ok := m.locales[code]
	if !ok {
		return nil
	}
	keys := make(map[string]bool)
	CollectKeys(locale.Messages, "", keys)
	return sortedKeys(keys)
}

// CollectKeys flattens nested messages into dotted keys.
func CollectKeys(messages map[string]interface{}, prefix string, keys map[string]bool) {
	for key, value := range messages {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if subMap, ok := value.(map[string]interface{}); ok {
			CollectKeys(subMap, fullKey, keys)
		} else {
			keys[fullKey] = true
		}
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

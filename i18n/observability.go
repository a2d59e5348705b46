package i18n

import (
	"context"
	"sync"
	"time"

	"github.com/kdsmith18542/liveform/observability"
)

// Observer receives catalogue events: message lookups, locale detection
// and hot reloads from WatchLocales.
type Observer interface {
	OnTranslationStart(ctx context.Context, locale string, key string)
	OnTranslationEnd(ctx context.Context, locale string, key string, duration time.Duration)
	OnLocaleDetection(ctx context.Context, detectedLocale string, fallbackUsed bool)
	// OnCatalogueReload is called after a watched file was re-read; err is
	// non-nil when the previous catalogue was kept.
	OnCatalogueReload(ctx context.Context, locale string, err error)
}

var (
	observerMu sync.RWMutex
	observer   Observer
)

// RegisterObserver installs obs for i18n events. Pass nil to detach.
// The watcher goroutine reads it, so it is guarded.
func RegisterObserver(obs Observer) {
	observerMu.Lock()
	defer observerMu.Unlock()
	observer = obs
}

func getObserver() Observer {
	observerMu.RLock()
	defer observerMu.RUnlock()
	return observer
}

// i18nObserver forwards catalogue events to the process-wide observability observer.
type i18nObserver struct{}

func (i18nObserver) OnTranslationStart(ctx context.Context, locale string, key string) {
	observability.GetObserver().OnTranslationStart(ctx, locale, key)
}

func (i18nObserver) OnTranslationEnd(ctx context.Context, locale string, key string, duration time.Duration) {
	observability.GetObserver().OnTranslationEnd(ctx, locale, key, duration)
}

func (i18nObserver) OnLocaleDetection(ctx context.Context, detectedLocale string, fallbackUsed bool) {
	observability.GetObserver().OnLocaleDetection(ctx, detectedLocale, fallbackUsed)
}

func (i18nObserver) OnCatalogueReload(ctx context.Context, locale string, err error) {
	attrs := map[string]string{"locale": locale}
	if err != nil {
		observability.LogError(ctx, "catalogue reload failed", err, attrs)
		return
	}
	observability.LogInfo(ctx, "catalogue reloaded", attrs)
}

// EnableObservability routes i18n events into the observability package.
func EnableObservability() {
	RegisterObserver(i18nObserver{})
}

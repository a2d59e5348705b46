package i18n

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/kdsmith18542/liveform/observability"
)

// WatchLocales watches the locale directory for changes and reloads changed files.
// The watcher stops when ctx is done. This should be called once, typically in development mode.
func (m *Manager) WatchLocales(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	log := observability.Logger().With().Str("component", "i18n").Str("dir", dir).Logger()

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				filename := filepath.Base(event.Name)
				if !strings.HasSuffix(filename, ".toml") {
					continue
				}
				localeCode := strings.TrimSuffix(filename, filepath.Ext(filename))
				err := m.loadLocaleFile(localeCode, event.Name)
				if obs := getObserver(); obs != nil {
					obs.OnCatalogueReload(ctx, localeCode, err)
				}
				if err != nil {
					// Editors often write partial files; keep the previous catalogue.
					log.Warn().Err(err).Str("locale", localeCode).Msg("reload failed")
					continue
				}
				log.Info().Str("locale", localeCode).Msg("reloaded locale")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("watcher error")
			}
		}
	}()

	return nil
}

package i18n

import (
	"embed"
	"fmt"
	"sync"
)

// LocalesFS holds the catalogues shipped with the binary.
//
//go:embed locales/*.toml
var LocalesFS embed.FS

// LocalesDir is the directory of LocalesFS holding the catalogues.
const LocalesDir = "locales"

var (
	defaultOnce    sync.Once
	defaultManager *Manager
)

// Default returns a shared manager loaded from the embedded catalogues.
// Panics if an embedded catalogue is invalid, which only a broken build can cause.
func Default() *Manager {
	defaultOnce.Do(func() {
		m, err := NewManagerFromFS(LocalesFS, LocalesDir)
		if err != nil {
			panic(fmt.Sprintf("Failed to load embedded locales: %v", err))
		}
		defaultManager = m
	})
	return defaultManager
}

// NewDefaultManager returns a fresh manager loaded from the embedded
// catalogues. Unlike Default, the result is not shared, so a directory
// overlay or watcher does not leak into other users.
func NewDefaultManager() (*Manager, error) {
	return NewManagerFromFS(LocalesFS, LocalesDir)
}

package llm

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/bimmerbailey/logsift/internal/config"
)

// Factory builds a Provider from the application config.
type Factory func(cfg *config.Config, logger *slog.Logger) (Provider, error)

var (
	factories   = make(map[string]Factory)
	factoriesMu sync.RWMutex
)

// Register makes a provider available under name, matched case-insensitively
// against llm.provider. Backends call it from init. It panics on a nil
// factory or a name registered twice.
func Register(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	name = strings.ToLower(name)
	if factory == nil {
		panic("llm: Register factory is nil for " + name)
	}
	if _, dup := factories[name]; dup {
		panic("llm: Register called twice for " + name)
	}
	factories[name] = factory
}

// Providers returns the registered names, sorted.
func Providers() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewProvider builds the provider named by cfg.LLM.Provider. The backend's
// package must be imported for its name to be registered.
func NewProvider(cfg *config.Config, logger *slog.Logger) (Provider, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	name := strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if name == "" {
		return nil, errors.New("llm provider not specified in configuration")
	}

	factoriesMu.RLock()
	factory, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s (registered: %s)",
			name, strings.Join(Providers(), ", "))
	}

	logger.Debug("creating llm provider", "type", name)
	return factory(cfg, logger)
}

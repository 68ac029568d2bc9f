package plugin

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/onehub-labs/onehub/pkg/core"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Plugin)
)

// Register adds a plugin factory to the registry.
// Called by backend implementations in their init() functions.
// Registering the same name twice panics.
func Register(name string, factory func(*slog.Logger) Plugin) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("plugin: Register called twice for " + name)
	}
	registry[name] = factory
}

// Get retrieves a plugin factory by name.
func Get(name string) (func(*slog.Logger) Plugin, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// New creates a plugin instance for the config's type.
// The logger is passed to the plugin constructor (nil uses a discard logger).
func New(cfg core.Config, logger *slog.Logger) (Plugin, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("database type not specified")
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownPluginError{
			Type:      cfg.Type,
			Available: ListPlugins(),
		}
	}
	return factory(logger), nil
}

// ListPlugins returns all registered backend names (sorted).
func ListPlugins() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend type is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownPluginError is returned when an unknown backend type is requested.
type UnknownPluginError struct {
	Type      string
	Available []string
}

func (e *UnknownPluginError) Error() string {
	return fmt.Sprintf("unknown database type %q\nAvailable types: %v\nHint: Check the connection's type field", e.Type, e.Available)
}

package loader

import (
	"fmt"
	"sync"
)

// BackendFactory is a function that creates a new Backend instance.
//
// Factory functions are registered with RegisterBackend and are called
// when a backend of that name is needed.
type BackendFactory func() (Backend, error)

var (
	// backendRegistry stores backend factories by backend name
	backendRegistry = make(map[string]BackendFactory)
	// backendRegistryMu protects concurrent access to the registry
	backendRegistryMu sync.RWMutex
)

// RegisterBackend registers a backend factory for a given backend name.
//
// This should be called from init() functions in backend implementations.
// The name is a string like "dlopen", "wasm" or "none" that callers pass
// to New to select a backend.
//
// Example:
//
//	func init() {
//	    RegisterBackend("wasm", func() (Backend, error) {
//	        return NewWASMBackend()
//	    })
//	}
func RegisterBackend(name string, factory BackendFactory) {
	backendRegistryMu.Lock()
	defer backendRegistryMu.Unlock()
	backendRegistry[name] = factory
}

// GetBackendFactory retrieves a backend factory for the given name.
//
// Returns an error if no factory is registered for the name.
// This is used internally by New to find the appropriate backend.
func GetBackendFactory(name string) (BackendFactory, error) {
	backendRegistryMu.RLock()
	defer backendRegistryMu.RUnlock()
	factory, ok := backendRegistry[name]
	if !ok {
		return nil, fmt.Errorf("no backend registered with name: %s", name)
	}
	return factory, nil
}

// ListRegisteredBackends returns all registered backend names.
//
// This can be used to discover what loading backends are available at runtime.
func ListRegisteredBackends() []string {
	backendRegistryMu.RLock()
	defer backendRegistryMu.RUnlock()
	names := make([]string, 0, len(backendRegistry))
	for name := range backendRegistry {
		names = append(names, name)
	}
	return names
}

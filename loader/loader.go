// Package loader loads platform-native module images into the running
// process through a pluggable backend contract. Backends hide the native
// loading ABI of each platform (dlopen, a WASM runtime, or nothing at all)
// so that the rest of the system never has to ask which platform it is on.
package loader

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// Symbol is an opaque resolved entry point. Its concrete type depends on
// the backend that produced it: a host Go function for in-process
// backends, a Callable for the wasm backend, a raw pointer for dlopen.
type Symbol any

// Callable is the shape of a resolved function in image formats that are
// driven through a byte-oriented calling convention rather than a native
// one. The wasm backend resolves every symbol to a Callable.
type Callable func(input []byte) ([]byte, error)

// Backend is the platform loading contract. A backend that cannot load
// anything at all still satisfies it by failing every Load with
// ErrUnsupported; callers must not special-case which backend they run on.
type Backend interface {
	// Name returns the backend identifier used in the backend registry.
	Name() string

	// Load opens the module image at path and returns a live Handle.
	// Failures are reported through the package error taxonomy:
	// ErrUnsupported, ErrNotFound or ErrBadImage.
	Load(path string) (*Handle, error)

	// GuessPackageName derives a package name from a module path.
	// The second return is false when the backend has no guess; callers
	// fall back to the generic filename heuristic, never to a fabricated
	// name.
	GuessPackageName(path string) (string, bool)
}

// New creates a backend by registry name.
// Uses the backend registry to find the appropriate factory.
func New(name string) (Backend, error) {
	factory, err := GetBackendFactory(name)
	if err != nil {
		return nil, err
	}
	backend, err := factory()
	if err != nil {
		return nil, fmt.Errorf("failed to create %q backend: %w", name, err)
	}
	return backend, nil
}

// GuessPackageName asks the backend for a package name first and falls
// back to the generic filename heuristic when the backend has no guess.
func GuessPackageName(b Backend, path string) (string, bool) {
	if name, ok := b.GuessPackageName(path); ok {
		return name, true
	}
	return guessFromFilename(path)
}

// guessFromFilename strips directory, extension, a conventional "lib"
// prefix and trailing version decorations from a module path. It reports
// no guess rather than returning an empty or implausible name.
func guessFromFilename(path string) (string, bool) {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "", false
	}
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.TrimPrefix(base, "lib")
	base = strings.TrimRight(base, "0123456789._-")
	if base == "" {
		return "", false
	}
	runes := []rune(base)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes), true
}

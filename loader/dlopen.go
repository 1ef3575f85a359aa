//go:build darwin || freebsd || linux

package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ebitengine/purego"
)

func init() {
	RegisterBackend("dlopen", func() (Backend, error) {
		return NewDlopenBackend()
	})
}

// DlopenBackend loads native shared objects through the platform dynamic
// linker, using purego so no cgo is required. Symbols resolve to raw
// function pointers (uintptr) suitable for purego.SyscallN or
// purego.RegisterFunc.
type DlopenBackend struct{}

// NewDlopenBackend creates a new native shared-object backend.
func NewDlopenBackend() (*DlopenBackend, error) {
	return &DlopenBackend{}, nil
}

// Name returns the backend identifier.
func (b *DlopenBackend) Name() string { return "dlopen" }

// Load opens a shared object with RTLD_NOW so symbol resolution failures
// surface at load time rather than at first call.
func (b *DlopenBackend) Load(path string) (*Handle, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	img, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("dlopen %s: %w: %s", path, ErrBadImage, err)
	}

	resolve := func(symbol string) (Symbol, error) {
		addr, err := purego.Dlsym(img, symbol)
		if err != nil {
			return nil, fmt.Errorf("dlsym %q in %s: %w", symbol, path, ErrSymbolNotFound)
		}
		return addr, nil
	}
	unload := func() error {
		return purego.Dlclose(img)
	}

	return NewHandle(b.Name(), path, resolve, unload), nil
}

// GuessPackageName strips the directory, the conventional "lib" prefix
// and shared-object decorations ("libfoo1.2.so", "libfoo.so.1.2",
// "foo.dylib"). Reports no guess for paths without a shared-object
// extension.
func (b *DlopenBackend) GuessPackageName(path string) (string, bool) {
	base := filepath.Base(path)
	var name string
	switch {
	case strings.HasSuffix(base, ".so"):
		name = strings.TrimSuffix(base, ".so")
	case strings.Contains(base, ".so."):
		// Versioned objects like libm.so.6 keep the version after the
		// extension.
		name = base[:strings.Index(base, ".so.")]
	case strings.HasSuffix(base, ".dylib"):
		name = strings.TrimSuffix(base, ".dylib")
	default:
		return "", false
	}
	name = strings.TrimPrefix(name, "lib")
	name = strings.TrimRight(name, "0123456789._-")
	if name == "" {
		return "", false
	}
	return name, true
}

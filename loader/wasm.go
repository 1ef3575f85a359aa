package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	extism "github.com/extism/go-sdk"
)

func init() {
	RegisterBackend("wasm", func() (Backend, error) {
		return NewWASMBackend()
	})
}

// WASMBackend loads WebAssembly module images using the Extism SDK. It is
// the portable backend: unlike dlopen it works the same on every
// platform, and unlike dlopen its handles support unloading.
type WASMBackend struct{}

// NewWASMBackend creates a new WASM backend.
func NewWASMBackend() (*WASMBackend, error) {
	return &WASMBackend{}, nil
}

// Name returns the backend identifier.
func (b *WASMBackend) Name() string { return "wasm" }

// Load compiles and instantiates a WASM image from the given path.
// Symbols resolve to Callable values that drive the exported function
// through the Extism input/output convention.
func (b *WASMBackend) Load(path string) (*Handle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	manifest := extism.Manifest{
		Wasm: []extism.Wasm{
			extism.WasmData{Data: data, Name: filepath.Base(path)},
		},
	}
	config := extism.PluginConfig{
		EnableWasi: true,
	}

	ctx := context.Background()
	plugin, err := extism.NewPlugin(ctx, manifest, config, nil)
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w: %s", path, ErrBadImage, err)
	}

	resolve := func(symbol string) (Symbol, error) {
		if !plugin.FunctionExists(symbol) {
			return nil, fmt.Errorf("export %q in %s: %w", symbol, path, ErrSymbolNotFound)
		}
		call := Callable(func(input []byte) ([]byte, error) {
			exitCode, output, err := plugin.Call(symbol, input)
			if err != nil {
				return nil, fmt.Errorf("call %s: %w", symbol, err)
			}
			if exitCode != 0 {
				return nil, fmt.Errorf("%s returned non-zero exit code: %d", symbol, exitCode)
			}
			return output, nil
		})
		return call, nil
	}
	unload := func() error {
		return plugin.Close(ctx)
	}

	return NewHandle(b.Name(), path, resolve, unload), nil
}

// GuessPackageName strips the directory and the .wasm extension.
// Reports no guess for paths that do not look like WASM images.
func (b *WASMBackend) GuessPackageName(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".wasm") {
		return "", false
	}
	name := strings.TrimSuffix(base, ".wasm")
	name = strings.TrimRight(name, "0123456789._-")
	if name == "" {
		return "", false
	}
	return name, true
}

package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// initOnlyWASM is a minimal valid WASM image with a single export,
// init: () -> i32, returning 0. Assembled by hand section by section so
// the test does not depend on a toolchain-built fixture.
func initOnlyWASM() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d, // magic "\0asm"
		0x01, 0x00, 0x00, 0x00, // version 1
		0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7f, // type section: () -> i32
		0x03, 0x02, 0x01, 0x00, // function section: func 0 uses type 0
		0x07, 0x08, 0x01, 0x04, 'i', 'n', 'i', 't', 0x00, 0x00, // export "init" = func 0
		0x0a, 0x06, 0x01, 0x04, 0x00, 0x41, 0x00, 0x0b, // code: i32.const 0; end
	}
}

func TestWASMBackend_LoadResolveUnload(t *testing.T) {
	backend, err := NewWASMBackend()
	if err != nil {
		t.Fatalf("NewWASMBackend() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "demo.wasm")
	if err := os.WriteFile(path, initOnlyWASM(), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	handle, err := backend.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := handle.Backend(); got != "wasm" {
		t.Errorf("Backend() = %q, want %q", got, "wasm")
	}

	sym, err := handle.Resolve("init")
	if err != nil {
		t.Fatalf("Resolve(init) error = %v", err)
	}
	call, ok := sym.(Callable)
	if !ok {
		t.Fatalf("Resolve(init) returned %T, want Callable", sym)
	}
	output, err := call(nil)
	if err != nil {
		t.Fatalf("call init error = %v", err)
	}
	if len(output) != 0 {
		t.Errorf("call init output = %q, want empty", output)
	}

	if _, err := handle.Resolve("missing"); !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("Resolve(missing) error = %v, want ErrSymbolNotFound", err)
	}

	if err := handle.Unload(); err != nil {
		t.Fatalf("Unload() error = %v", err)
	}
	if err := handle.Unload(); !errors.Is(err, ErrAlreadyUnloaded) {
		t.Errorf("second Unload() error = %v, want ErrAlreadyUnloaded", err)
	}
}

func TestWASMBackend_LoadMissingFile(t *testing.T) {
	backend, err := NewWASMBackend()
	if err != nil {
		t.Fatalf("NewWASMBackend() error = %v", err)
	}

	_, err = backend.Load(filepath.Join(t.TempDir(), "missing.wasm"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestWASMBackend_LoadBadImage(t *testing.T) {
	backend, err := NewWASMBackend()
	if err != nil {
		t.Fatalf("NewWASMBackend() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "garbage.wasm")
	if err := os.WriteFile(path, []byte("this is not a wasm image"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err = backend.Load(path)
	if !errors.Is(err, ErrBadImage) {
		t.Errorf("Load() error = %v, want ErrBadImage", err)
	}
}

func TestWASMBackend_GuessPackageName(t *testing.T) {
	backend := &WASMBackend{}

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"/modules/demo.wasm", "demo", true},
		{"status-1.2.wasm", "status", true},
		{"/modules/demo.so", "", false},
		{"demo", "", false},
	}
	for _, tt := range tests {
		got, ok := backend.GuessPackageName(tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("GuessPackageName(%q) = (%q, %v), want (%q, %v)",
				tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

package loader

import (
	"errors"
	"testing"
)

// newTestHandle builds a handle over fake resolve/unload hooks and
// returns a counter of how many times unload ran.
func newTestHandle(unloadable bool) (*Handle, *int) {
	unloads := 0
	resolve := func(symbol string) (Symbol, error) {
		if symbol == "init" {
			return func() {}, nil
		}
		return nil, errors.New("no such symbol")
	}
	var unload func() error
	if unloadable {
		unload = func() error {
			unloads++
			return nil
		}
	}
	return NewHandle("test", "/modules/demo.so", resolve, unload), &unloads
}

func TestHandle_UnloadOnce(t *testing.T) {
	h, unloads := newTestHandle(true)

	if err := h.Unload(); err != nil {
		t.Fatalf("first Unload() error = %v", err)
	}
	if *unloads != 1 {
		t.Fatalf("unload hook ran %d times, want 1", *unloads)
	}

	err := h.Unload()
	if !errors.Is(err, ErrAlreadyUnloaded) {
		t.Errorf("second Unload() error = %v, want ErrAlreadyUnloaded", err)
	}
	if *unloads != 1 {
		t.Errorf("unload hook ran %d times after double unload, want 1", *unloads)
	}
}

func TestHandle_UnloadWithoutCapability(t *testing.T) {
	h, _ := newTestHandle(false)

	if h.CanUnload() {
		t.Error("CanUnload() = true, want false")
	}

	err := h.Unload()
	if !errors.Is(err, ErrUnloadUnsupported) {
		t.Errorf("Unload() error = %v, want ErrUnloadUnsupported", err)
	}
}

func TestHandle_ResolveAfterUnload(t *testing.T) {
	h, _ := newTestHandle(true)

	if _, err := h.Resolve("init"); err != nil {
		t.Fatalf("Resolve(init) error = %v", err)
	}
	if _, err := h.Resolve("missing"); err == nil {
		t.Fatal("Resolve(missing) error = nil, want error")
	}

	if err := h.Unload(); err != nil {
		t.Fatalf("Unload() error = %v", err)
	}

	_, err := h.Resolve("init")
	if !errors.Is(err, ErrAlreadyUnloaded) {
		t.Errorf("Resolve() after unload error = %v, want ErrAlreadyUnloaded", err)
	}
}

func TestHandle_Leak(t *testing.T) {
	h, unloads := newTestHandle(false)

	h.Leak()

	// A leaked handle keeps its symbols resolvable for process lifetime.
	if _, err := h.Resolve("init"); err != nil {
		t.Errorf("Resolve() on leaked handle error = %v", err)
	}

	err := h.Unload()
	if !errors.Is(err, ErrUnloadUnsupported) {
		t.Errorf("Unload() on leaked handle error = %v, want ErrUnloadUnsupported", err)
	}
	if *unloads != 0 {
		t.Errorf("unload hook ran %d times on leaked handle, want 0", *unloads)
	}

	// Leaking again is a no-op.
	h.Leak()
}

func TestHandle_UnloadHookFailureKeepsHandleLoaded(t *testing.T) {
	hookErr := errors.New("image busy")
	h := NewHandle("test", "/modules/demo.so",
		func(symbol string) (Symbol, error) { return func() {}, nil },
		func() error { return hookErr },
	)

	err := h.Unload()
	if !errors.Is(err, hookErr) {
		t.Fatalf("Unload() error = %v, want wrapped hook error", err)
	}

	// The failed unload must not poison the handle.
	if _, err := h.Resolve("anything"); err != nil {
		t.Errorf("Resolve() after failed unload error = %v", err)
	}
}

func TestHandle_Accessors(t *testing.T) {
	h, _ := newTestHandle(true)
	if h.Backend() != "test" {
		t.Errorf("Backend() = %q, want %q", h.Backend(), "test")
	}
	if h.Path() != "/modules/demo.so" {
		t.Errorf("Path() = %q, want %q", h.Path(), "/modules/demo.so")
	}
}

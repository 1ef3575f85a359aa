package host

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/extload/extload/pkgreg"
	"github.com/extload/extload/trust"
)

func TestHost_TrustGatesLoading(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.so")
	if err := os.WriteFile(path, []byte("image bytes"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	backend := newFakeBackend(true)
	backend.entries[path] = func(ic *InitContext) error {
		ic.ProvidePackage("demo", "1.0", "capability")
		return nil
	}

	store := trust.NewWithKeyring(keyring.NewArrayKeyring(nil))
	h, err := New(Config{
		Backend:  backend,
		Registry: pkgreg.New(nil),
		Trust:    store,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Unpinned image is rejected before the backend ever sees it.
	_, err = h.LoadExtension(context.Background(), path)
	if !errors.Is(err, trust.ErrNotPinned) {
		t.Fatalf("LoadExtension() error = %v, want ErrNotPinned", err)
	}
	if _, ok := h.Registry().Lookup("demo", ""); ok {
		t.Error("package visible after rejected load")
	}

	// The fake backend has no name guess, so the pin key is the filename.
	if _, err := store.Pin("demo.so", path); err != nil {
		t.Fatalf("Pin() error = %v", err)
	}
	if _, err := h.LoadExtension(context.Background(), path); err != nil {
		t.Fatalf("LoadExtension() after pin error = %v", err)
	}

	if _, ok := h.Registry().Lookup("demo", "1.0"); !ok {
		t.Error("package absent after successful pinned load")
	}
}

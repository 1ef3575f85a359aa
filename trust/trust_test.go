package trust

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
)

func newTestStore() *Store {
	return NewWithKeyring(keyring.NewArrayKeyring(nil))
}

func writeImage(t *testing.T, name string, contents []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestStore_PinAndVerify(t *testing.T) {
	store := newTestStore()
	path := writeImage(t, "demo.wasm", []byte("module image bytes"))

	digest, err := store.Pin("demo", path)
	if err != nil {
		t.Fatalf("Pin() error = %v", err)
	}
	if len(digest) != 64 {
		t.Errorf("Pin() digest length = %d, want 64 hex chars", len(digest))
	}

	if err := store.Verify("demo", path); err != nil {
		t.Errorf("Verify() error = %v", err)
	}

	got, err := store.Digest("demo")
	if err != nil {
		t.Fatalf("Digest() error = %v", err)
	}
	if got != digest {
		t.Errorf("Digest() = %q, want %q", got, digest)
	}
}

func TestStore_VerifyNotPinned(t *testing.T) {
	store := newTestStore()
	path := writeImage(t, "demo.wasm", []byte("module image bytes"))

	err := store.Verify("never-pinned", path)
	if !errors.Is(err, ErrNotPinned) {
		t.Errorf("Verify() error = %v, want ErrNotPinned", err)
	}
}

func TestStore_VerifyMismatch(t *testing.T) {
	store := newTestStore()
	path := writeImage(t, "demo.wasm", []byte("original bytes"))

	if _, err := store.Pin("demo", path); err != nil {
		t.Fatalf("Pin() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("tampered bytes"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	err := store.Verify("demo", path)
	if !errors.Is(err, ErrDigestMismatch) {
		t.Errorf("Verify() after tamper error = %v, want ErrDigestMismatch", err)
	}
}

func TestStore_PinReplacesExisting(t *testing.T) {
	store := newTestStore()
	path := writeImage(t, "demo.wasm", []byte("first"))

	first, err := store.Pin("demo", path)
	if err != nil {
		t.Fatalf("Pin() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("second"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	second, err := store.Pin("demo", path)
	if err != nil {
		t.Fatalf("second Pin() error = %v", err)
	}
	if first == second {
		t.Error("re-pin produced identical digest for different contents")
	}

	if err := store.Verify("demo", path); err != nil {
		t.Errorf("Verify() after re-pin error = %v", err)
	}
}

func TestStore_PinMissingFile(t *testing.T) {
	store := newTestStore()
	if _, err := store.Pin("demo", filepath.Join(t.TempDir(), "missing.wasm")); err == nil {
		t.Error("Pin() on missing file error = nil, want error")
	}
}

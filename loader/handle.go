package loader

import (
	"fmt"
	"sync"
)

type handleState int

const (
	stateLoaded handleState = iota
	stateUnloaded
	stateLeaked
)

// Handle owns a successfully loaded module image and its optional unload
// hook. A handle moves from Loaded to exactly one of Unloaded or Leaked;
// Unloaded is reached by a single successful Unload, Leaked is the
// explicit terminal state for images the backend cannot release, whose
// resources are reclaimed only at process teardown.
//
// A handle is exclusively owned by whoever performed the load until it is
// handed off (typically to the host entry that tracks the extension).
// Unloading while other modules still hold resolved symbols from this
// image is undefined behavior that callers must avoid; the handle does
// not track cross-module symbol liveness.
type Handle struct {
	mu      sync.Mutex
	backend string
	path    string
	state   handleState
	resolve func(symbol string) (Symbol, error)
	unload  func() error
}

// NewHandle wraps a loaded image in a Handle. resolve must be non-nil;
// unload may be nil when the backend has no unload capability, in which
// case Unload reports ErrUnloadUnsupported and the handle can only be
// leaked. Backends call this from Load; tests may construct fakes with it.
func NewHandle(backend, path string, resolve func(symbol string) (Symbol, error), unload func() error) *Handle {
	return &Handle{
		backend: backend,
		path:    path,
		resolve: resolve,
		unload:  unload,
	}
}

// Backend returns the name of the backend that loaded this image.
func (h *Handle) Backend() string { return h.backend }

// Path returns the module path the image was loaded from.
func (h *Handle) Path() string { return h.path }

// CanUnload reports whether the backend supplied an unload hook.
func (h *Handle) CanUnload() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.unload != nil
}

// Resolve looks up a symbol in the loaded image.
// Fails with ErrSymbolNotFound when the image lacks the symbol and with
// ErrAlreadyUnloaded once the handle has been released.
func (h *Handle) Resolve(symbol string) (Symbol, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == stateUnloaded {
		return nil, fmt.Errorf("resolve %q in %s: %w", symbol, h.path, ErrAlreadyUnloaded)
	}
	return h.resolve(symbol)
}

// Unload releases the image. Legal exactly once: a second call fails with
// ErrAlreadyUnloaded. When the backend has no unload capability this
// fails with ErrUnloadUnsupported instead of pretending resources were
// freed; callers then decide to Leak the handle. If the backend's unload
// hook itself fails the handle stays loaded and the error is returned.
func (h *Handle) Unload() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch h.state {
	case stateUnloaded:
		return fmt.Errorf("unload %s: %w", h.path, ErrAlreadyUnloaded)
	case stateLeaked:
		return fmt.Errorf("unload %s: handle was leaked: %w", h.path, ErrUnloadUnsupported)
	}
	if h.unload == nil {
		return fmt.Errorf("unload %s: %w", h.path, ErrUnloadUnsupported)
	}
	if err := h.unload(); err != nil {
		return fmt.Errorf("unload %s: %w", h.path, err)
	}
	h.state = stateUnloaded
	return nil
}

// Leak marks a loaded handle as intentionally never released. Resolved
// symbols stay valid for the life of the process. Leaking an already
// unloaded or leaked handle is a no-op.
func (h *Handle) Leak() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == stateLoaded {
		h.state = stateLeaked
	}
}

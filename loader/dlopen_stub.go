//go:build !(darwin || freebsd || linux)

package loader

import "fmt"

// NewDlopenBackend creates a native shared-object backend (stub for
// platforms without dlopen). The "dlopen" backend name is not registered
// on these platforms.
func NewDlopenBackend() (Backend, error) {
	return nil, fmt.Errorf("dlopen backend is only available on unix-like systems: %w", ErrUnsupported)
}

package loader

import "errors"

// Loader error taxonomy. Backends wrap these sentinels with fmt.Errorf
// and %w so callers can both match with errors.Is and surface the
// underlying platform diagnostic.
var (
	// ErrUnsupported is returned by backends that have no dynamic-loading
	// capability at all. It is a terminal, expected condition on such
	// builds, not a bug, and its text is the fixed user-facing diagnostic.
	ErrUnsupported = errors.New("dynamic loading is not currently available on this system")

	// ErrNotFound indicates the module image does not exist at the given
	// path. Distinct from ErrUnsupported so operators are not misled into
	// thinking a specific file was bad on a build that cannot load anything.
	ErrNotFound = errors.New("module image not found")

	// ErrBadImage indicates the image exists but is not loadable by the
	// backend (wrong format, unresolved dependencies, corrupt file).
	ErrBadImage = errors.New("module image is not loadable")

	// ErrSymbolNotFound indicates the loaded image lacks a requested symbol.
	ErrSymbolNotFound = errors.New("symbol not found in module image")

	// ErrAlreadyUnloaded indicates a handle operation after the handle was
	// released. Unloading is legal exactly once.
	ErrAlreadyUnloaded = errors.New("module handle already unloaded")

	// ErrUnloadUnsupported indicates the backend that produced a handle has
	// no unload capability. The handle can only be leaked for the life of
	// the process; Unload never silently no-ops.
	ErrUnloadUnsupported = errors.New("backend does not support unloading")
)

package loader

func init() {
	RegisterBackend("none", func() (Backend, error) {
		return NoneBackend{}, nil
	})
}

// NoneBackend is the backend for builds with no dynamic-loading
// capability. Every Load fails with ErrUnsupported regardless of the
// path; it makes no attempt to distinguish inputs, and its diagnostic is
// the fixed user-facing message carried by the sentinel.
type NoneBackend struct{}

// Name returns the backend identifier.
func (NoneBackend) Name() string { return "none" }

// Load always fails with ErrUnsupported.
func (NoneBackend) Load(path string) (*Handle, error) {
	return nil, ErrUnsupported
}

// GuessPackageName never guesses, deferring to the generic filename
// heuristics owned by the caller.
func (NoneBackend) GuessPackageName(path string) (string, bool) {
	return "", false
}

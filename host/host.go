// Package host drives extension module initialization: loading an image
// through a loader backend, running its entry point, and committing the
// commands and package registrations it staged. Command dispatch and
// script evaluation are external collaborators consumed through small
// interfaces; this package implements neither.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/extload/extload/loader"
	"github.com/extload/extload/pkgreg"
	"github.com/extload/extload/trust"
)

// CommandFunc is a native command entry point installed into the host's
// dispatch namespace.
type CommandFunc func(ctx context.Context, args []string) error

// CommandBinder installs named native entry points into the host's
// dispatch namespace. Duplicate-name policy belongs to the binder, not
// to this package. cleanup may be nil.
type CommandBinder interface {
	Install(name string, entry CommandFunc, cleanup func())
}

// Evaluator runs bootstrap script text to finish wiring script-level
// facilities. Its error type is opaque to this package.
type Evaluator interface {
	Evaluate(script string) error
}

// EntryPoint is the designated entry function of an extension module. It
// runs exactly once per load and stages commands, package provisions and
// bootstrap scripts on the InitContext; nothing it stages becomes
// visible unless the whole initialization succeeds.
type EntryPoint func(ic *InitContext) error

// EntryAdapter converts a resolved entry symbol into an EntryPoint. The
// default adapter type-asserts the symbol; backends whose symbols are
// not Go functions (like wasm Callables) need their own adapter.
type EntryAdapter func(sym loader.Symbol) (EntryPoint, error)

// DefaultEntrySymbol is the symbol name resolved for the entry point
// when Config.EntrySymbol is empty.
const DefaultEntrySymbol = "init"

// Config wires a Host to its collaborators. Backend and Registry are
// required; the rest are optional.
type Config struct {
	Backend  loader.Backend
	Registry *pkgreg.Registry

	// Commands receives staged command installs at commit time. Required
	// only if extensions actually install commands.
	Commands CommandBinder

	// Evaluator runs staged bootstrap scripts at commit time. Required
	// only if extensions actually stage scripts.
	Evaluator Evaluator

	// Trust, when set, must hold a pinned digest for every module image
	// before it is loaded.
	Trust *trust.Store

	// EntrySymbol overrides DefaultEntrySymbol.
	EntrySymbol string

	// AdaptEntry overrides the default type-assertion adapter.
	AdaptEntry EntryAdapter

	Logger *slog.Logger
}

// Extension is a successfully initialized module tracked by the host.
type Extension struct {
	Name     string
	Path     string
	Packages []string

	handle *loader.Handle
}

// Host loads and initializes extension modules. Loads are serialized
// under a single module-loading critical section per host; most native
// loading ABIs are not reentrant across concurrent loads.
type Host struct {
	mu       sync.Mutex
	backend  loader.Backend
	registry *pkgreg.Registry
	commands CommandBinder
	eval     Evaluator
	trust    *trust.Store
	entry    string
	adapt    EntryAdapter
	logger   *slog.Logger
	exts     map[string]*Extension
}

// New creates a Host from cfg.
func New(cfg Config) (*Host, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("host: backend is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("host: package registry is required")
	}
	entry := cfg.EntrySymbol
	if entry == "" {
		entry = DefaultEntrySymbol
	}
	adapt := cfg.AdaptEntry
	if adapt == nil {
		adapt = assertEntry
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		backend:  cfg.Backend,
		registry: cfg.Registry,
		commands: cfg.Commands,
		eval:     cfg.Evaluator,
		trust:    cfg.Trust,
		entry:    entry,
		adapt:    adapt,
		logger:   logger,
		exts:     make(map[string]*Extension),
	}, nil
}

// assertEntry is the default EntryAdapter for backends whose symbols are
// host Go functions.
func assertEntry(sym loader.Symbol) (EntryPoint, error) {
	switch fn := sym.(type) {
	case EntryPoint:
		return fn, nil
	case func(*InitContext) error:
		return fn, nil
	default:
		return nil, fmt.Errorf("entry symbol has unexpected type %T", sym)
	}
}

// Registry returns the package registry this host commits provisions to.
func (h *Host) Registry() *pkgreg.Registry { return h.registry }

// Extensions returns the names of currently loaded extensions.
func (h *Host) Extensions() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.exts))
	for name := range h.exts {
		names = append(names, name)
	}
	return names
}

// LoadExtension loads the module image at path, runs its entry point and
// commits whatever it staged. On any failure the handle is released (or
// leaked when the backend cannot unload) and nothing the entry point
// staged remains visible: no commands, no package records.
func (h *Host) LoadExtension(ctx context.Context, path string) (*Extension, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	name := h.guessName(path)

	if h.trust != nil {
		if err := h.trust.Verify(name, path); err != nil {
			return nil, fmt.Errorf("load extension %s: %w", path, err)
		}
	}

	handle, err := h.backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load extension %s: %w", path, err)
	}

	ext, err := h.initialize(ctx, name, path, handle)
	if err != nil {
		h.release(handle)
		return nil, fmt.Errorf("initialize extension %s: %w", path, err)
	}

	h.exts[ext.Name] = ext
	h.logger.Info("extension loaded",
		"name", ext.Name, "path", path, "backend", handle.Backend(), "packages", ext.Packages)
	return ext, nil
}

// initialize resolves and runs the entry point, then commits the staged
// work. The handle is still owned by the caller on error.
func (h *Host) initialize(ctx context.Context, name, path string, handle *loader.Handle) (*Extension, error) {
	sym, err := handle.Resolve(h.entry)
	if err != nil {
		return nil, err
	}
	entry, err := h.adapt(sym)
	if err != nil {
		return nil, err
	}

	ic := &InitContext{ctx: ctx, logger: h.logger}
	if err := entry(ic); err != nil {
		return nil, fmt.Errorf("entry point failed: %w", err)
	}

	ext := &Extension{Name: name, Path: path, handle: handle}
	for _, p := range ic.provides {
		ext.Packages = append(ext.Packages, p.name)
	}
	if len(ic.provides) > 0 {
		ext.Name = ic.provides[0].name
	}
	if _, taken := h.exts[ext.Name]; taken {
		return nil, fmt.Errorf("extension %q is already loaded", ext.Name)
	}

	if err := h.commit(ic); err != nil {
		return nil, err
	}
	return ext, nil
}

// commit makes the staged work visible, in order: command installs,
// bootstrap evaluation, then package registration. Registration comes
// last and is batched through RegisterAll so that no PackageRecord is
// ever observable from a failed initialization; any earlier failure
// rolls installed commands back through their cleanup hooks.
func (h *Host) commit(ic *InitContext) (err error) {
	var installed []stagedCommand
	defer func() {
		if err != nil {
			for i := len(installed) - 1; i >= 0; i-- {
				if installed[i].cleanup != nil {
					installed[i].cleanup()
				}
			}
		}
	}()

	if len(ic.commands) > 0 {
		if h.commands == nil {
			return fmt.Errorf("extension installs commands but host has no command binder")
		}
		for _, cmd := range ic.commands {
			h.commands.Install(cmd.name, cmd.entry, cmd.cleanup)
			installed = append(installed, cmd)
		}
	}

	if len(ic.bootstrap) > 0 {
		if h.eval == nil {
			return fmt.Errorf("extension stages bootstrap script but host has no evaluator")
		}
		for _, script := range ic.bootstrap {
			if err := h.eval.Evaluate(script); err != nil {
				return fmt.Errorf("bootstrap script failed: %w", err)
			}
		}
	}

	if len(ic.provides) > 0 {
		records := make([]pkgreg.Record, len(ic.provides))
		for i, p := range ic.provides {
			records[i] = pkgreg.Record{Name: p.name, Version: p.version, Capability: p.capability}
		}
		if err := h.registry.RegisterAll(records); err != nil {
			return err
		}
	}
	return nil
}

// UnloadExtension releases the named extension's image. When the backend
// has no unload capability the handle is leaked intentionally and the
// extension is still forgotten. Package records the extension provided
// stay in the registry; callers that resolved stub-table pointers from
// this extension must stop using them before calling this.
func (h *Host) UnloadExtension(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ext, ok := h.exts[name]
	if !ok {
		return fmt.Errorf("extension %q is not loaded", name)
	}

	if err := ext.handle.Unload(); err != nil {
		if errors.Is(err, loader.ErrUnloadUnsupported) {
			ext.handle.Leak()
			h.logger.Warn("backend cannot unload, leaking image for process lifetime",
				"name", name, "path", ext.Path)
		} else {
			return fmt.Errorf("unload extension %q: %w", name, err)
		}
	}

	delete(h.exts, name)
	h.logger.Info("extension unloaded", "name", name)
	return nil
}

// release drops a handle after a failed initialization.
func (h *Host) release(handle *loader.Handle) {
	if err := handle.Unload(); err != nil {
		if errors.Is(err, loader.ErrUnloadUnsupported) {
			handle.Leak()
			return
		}
		h.logger.Error("failed to release extension image", "path", handle.Path(), "error", err)
	}
}

// guessName derives a provisional extension name from the module path.
// The first provided package name takes precedence once known.
func (h *Host) guessName(path string) string {
	if name, ok := loader.GuessPackageName(h.backend, path); ok {
		return name
	}
	return filepath.Base(path)
}

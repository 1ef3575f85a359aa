// Package pkgreg implements the process-wide registry of provided
// packages: named, versioned capabilities (usually stub tables) that
// loaded modules publish for each other to discover.
//
// The registry is an explicit object rather than an implicit global so
// hosts and tests construct isolated instances. Register calls are
// serialized; Lookup is safe from any number of concurrent readers and a
// reader never observes a half-constructed record.
package pkgreg

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// ErrAlreadyProvided is returned by Register when the name is already
// taken at an equal-or-greater version. Re-registration at a strictly
// greater version replaces the prior record instead.
var ErrAlreadyProvided = errors.New("package already provided")

// PackageInfo describes one provided package for listing purposes.
type PackageInfo struct {
	Name    string
	Version string
}

type record struct {
	version    Version
	capability any
}

// Registry maps package names to (version, capability) records.
type Registry struct {
	mu     sync.RWMutex
	pkgs   map[string]record
	logger *slog.Logger
}

// New creates an empty registry. A nil logger defaults to slog.Default().
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		pkgs:   make(map[string]record),
		logger: logger,
	}
}

// Register publishes a capability under the given package name and
// version. If the name is already provided at an equal-or-greater
// version the call fails with ErrAlreadyProvided; a strictly greater
// version atomically replaces the prior record. Records are never
// mutated in place.
func (r *Registry) Register(name, version string, capability any) error {
	if name == "" {
		return fmt.Errorf("package name must not be empty")
	}
	v, err := ParseVersion(version)
	if err != nil {
		return fmt.Errorf("register package %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prior, ok := r.pkgs[name]; ok {
		if v.Compare(prior.version) <= 0 {
			return fmt.Errorf("package %q version %s: %w at version %s",
				name, version, ErrAlreadyProvided, prior.version)
		}
		r.logger.Debug("replacing provided package",
			"name", name, "old_version", prior.version.String(), "new_version", version)
	}
	r.pkgs[name] = record{version: v, capability: capability}
	r.logger.Debug("package provided", "name", name, "version", version)
	return nil
}

// Lookup returns the capability registered under name if its version is
// at least minVersion. Absence is a normal outcome for optional
// dependencies, never an error. An empty minVersion matches any
// registered version; an unparseable minVersion matches nothing.
func (r *Registry) Lookup(name, minVersion string) (any, bool) {
	var min Version
	if minVersion != "" {
		var err error
		min, err = ParseVersion(minVersion)
		if err != nil {
			return nil, false
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.pkgs[name]
	if !ok {
		return nil, false
	}
	if minVersion != "" && rec.version.Compare(min) < 0 {
		return nil, false
	}
	return rec.capability, true
}

// Record is one package provision for RegisterAll.
type Record struct {
	Name       string
	Version    string
	Capability any
}

// RegisterAll registers a batch of packages atomically: either every
// record is accepted under the Register policy or none of them becomes
// visible. Hosts use this to commit an extension's provisions so a
// failed initialization never leaves a partial record behind.
func (r *Registry) RegisterAll(records []Record) error {
	parsed := make([]Version, len(records))
	for i, rec := range records {
		if rec.Name == "" {
			return fmt.Errorf("package name must not be empty")
		}
		v, err := ParseVersion(rec.Version)
		if err != nil {
			return fmt.Errorf("register package %q: %w", rec.Name, err)
		}
		parsed[i] = v
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		if _, dup := seen[rec.Name]; dup {
			return fmt.Errorf("package %q provided twice in one batch", rec.Name)
		}
		seen[rec.Name] = struct{}{}
		if prior, ok := r.pkgs[rec.Name]; ok && parsed[i].Compare(prior.version) <= 0 {
			return fmt.Errorf("package %q version %s: %w at version %s",
				rec.Name, rec.Version, ErrAlreadyProvided, prior.version)
		}
	}
	for i, rec := range records {
		r.pkgs[rec.Name] = record{version: parsed[i], capability: rec.Capability}
		r.logger.Debug("package provided", "name", rec.Name, "version", rec.Version)
	}
	return nil
}

// Provided returns a snapshot of all provided packages sorted by name.
func (r *Registry) Provided() []PackageInfo {
	r.mu.RLock()
	infos := make([]PackageInfo, 0, len(r.pkgs))
	for name, rec := range r.pkgs {
		infos = append(infos, PackageInfo{Name: name, Version: rec.version.String()})
	}
	r.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

package host

import (
	"context"
	"log/slog"
)

type stagedCommand struct {
	name    string
	entry   CommandFunc
	cleanup func()
}

type stagedPackage struct {
	name       string
	version    string
	capability any
}

// InitContext is handed to an extension's entry point. Everything staged
// on it is buffered: command installs, package provisions and bootstrap
// scripts become visible only when the whole initialization commits, so
// a failing extension is never partially available to other modules.
type InitContext struct {
	ctx    context.Context
	logger *slog.Logger

	commands  []stagedCommand
	provides  []stagedPackage
	bootstrap []string
}

// Context returns the load operation's context.
func (ic *InitContext) Context() context.Context { return ic.ctx }

// Logger returns the host logger for use during initialization.
func (ic *InitContext) Logger() *slog.Logger { return ic.logger }

// InstallCommand stages a named command binding. cleanup, if non-nil,
// runs when initialization fails after the command was installed, and is
// otherwise handed to the command binder.
func (ic *InitContext) InstallCommand(name string, entry CommandFunc, cleanup func()) {
	ic.commands = append(ic.commands, stagedCommand{name: name, entry: entry, cleanup: cleanup})
}

// ProvidePackage stages a package registration, typically with a stub
// table as the capability. The first provided package names the
// extension.
func (ic *InitContext) ProvidePackage(name, version string, capability any) {
	ic.provides = append(ic.provides, stagedPackage{name: name, version: version, capability: capability})
}

// EvalBootstrap stages script text for the host's evaluator. Scripts run
// after command installation and before package registration; a script
// failure aborts the whole initialization.
func (ic *InitContext) EvalBootstrap(script string) {
	ic.bootstrap = append(ic.bootstrap, script)
}

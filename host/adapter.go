package host

import (
	"encoding/json"
	"fmt"

	"github.com/extload/extload/loader"
)

// wasmInitResult is the JSON document a wasm extension's entry export
// writes through the Extism output convention.
type wasmInitResult struct {
	Package string `json:"package"`
	Version string `json:"version"`
}

// WASMEntryAdapter adapts entry symbols resolved by the wasm backend.
// The entry export takes no input and reports the package it provides as
// JSON: {"package": "demo", "version": "1.0"}. The entry Callable itself
// is registered as the package capability so consumers can drive the
// module through it.
func WASMEntryAdapter(sym loader.Symbol) (EntryPoint, error) {
	call, ok := sym.(loader.Callable)
	if !ok {
		return nil, fmt.Errorf("wasm entry symbol has unexpected type %T", sym)
	}
	return func(ic *InitContext) error {
		output, err := call(nil)
		if err != nil {
			return fmt.Errorf("wasm entry point: %w", err)
		}
		var result wasmInitResult
		if err := json.Unmarshal(output, &result); err != nil {
			return fmt.Errorf("wasm entry point returned invalid JSON: %w", err)
		}
		if result.Package == "" || result.Version == "" {
			return fmt.Errorf("wasm entry point did not declare package and version")
		}
		ic.ProvidePackage(result.Package, result.Version, call)
		return nil
	}, nil
}

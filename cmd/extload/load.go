package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/extload/extload/host"
	"github.com/extload/extload/pkgreg"
	"github.com/extload/extload/trust"
)

var loadVerify bool

var loadCmd = &cobra.Command{
	Use:   "load <module-path>...",
	Short: "Load extension modules and report what they provide",
	Long: `Load runs each module's entry point through the selected backend and
prints the commands it installed and the packages it provided. With
--verify, every image must match a digest previously pinned with
"extload trust pin".`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().BoolVar(&loadVerify, "verify", false, "require pinned digests before loading")
}

func runLoad(cmd *cobra.Command, args []string) error {
	h, registry, err := newHost(loadVerify)
	if err != nil {
		return err
	}

	for _, path := range args {
		ext, err := h.LoadExtension(cmd.Context(), path)
		if err != nil {
			return err
		}
		fmt.Printf("loaded %s from %s (backend %s)\n", ext.Name, ext.Path, viperBackendName())
	}

	printProvided(registry)
	return nil
}

// newHost wires a host to a fresh registry, the selected backend and an
// echoing command binder. The CLI embeds no script interpreter, so
// extensions that stage bootstrap scripts fail to load here.
func newHost(verify bool) (*host.Host, *pkgreg.Registry, error) {
	backend, err := selectedBackend()
	if err != nil {
		return nil, nil, err
	}

	registry := pkgreg.New(slog.Default())
	cfg := host.Config{
		Backend:  backend,
		Registry: registry,
		Commands: &echoBinder{},
		Logger:   slog.Default(),
	}
	if backend.Name() == "wasm" {
		cfg.AdaptEntry = host.WASMEntryAdapter
	}
	if verify {
		store, err := trust.Open(viper.GetString("trust.service"))
		if err != nil {
			return nil, nil, err
		}
		cfg.Trust = store
	}

	h, err := host.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return h, registry, nil
}

func printProvided(registry *pkgreg.Registry) {
	infos := registry.Provided()
	if len(infos) == 0 {
		fmt.Println("no packages provided")
		return
	}
	for _, info := range infos {
		fmt.Printf("  %s %s\n", info.Name, info.Version)
	}
}

func viperBackendName() string {
	if backendName != "" {
		return backendName
	}
	return viper.GetString("backend")
}

// echoBinder stands in for the real command-dispatch collaborator: it
// just reports each binding the extension installed.
type echoBinder struct{}

func (eb *echoBinder) Install(name string, entry host.CommandFunc, cleanup func()) {
	fmt.Printf("  command %s\n", name)
}

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "Load configured modules and list the packages they provide",
	Long: `Packages loads every module path from the "module_paths" config key
and prints the resulting package registry. Modules that fail to load are
reported and skipped.`,
	RunE: runPackages,
}

func runPackages(cmd *cobra.Command, args []string) error {
	paths := viper.GetStringSlice("module_paths")
	if len(paths) == 0 {
		fmt.Println("no module paths configured")
		return nil
	}

	h, registry, err := newHost(false)
	if err != nil {
		return err
	}

	for _, path := range paths {
		if _, err := h.LoadExtension(cmd.Context(), path); err != nil {
			slog.Warn("skipping module", "path", path, "error", err)
		}
	}

	printProvided(registry)
	return nil
}

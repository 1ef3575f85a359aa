// extload is the operator CLI for loading, inspecting and trusting
// dynamic extension modules.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/extload/extload/loader"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"

	// verbose enables debug logging
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// backendName overrides the configured loader backend
	backendName string

	rootCmd = &cobra.Command{
		Use:   "extload",
		Short: "Load and inspect dynamic extension modules",
		Long: `extload loads extension modules through a pluggable platform backend
(native shared objects via dlopen, WebAssembly images, or a disabled
backend on builds without dynamic loading), runs their entry points and
reports the packages they provide.

Modules publish versioned capabilities into a package registry; other
modules and the operator discover them there by name and minimum
version.`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/extload/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "", "loader backend to use (overrides config)")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(packagesCmd)
	rootCmd.AddCommand(backendsCmd)
	rootCmd.AddCommand(trustCmd)
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// initConfig reads the config file and environment, then installs the
// CLI logger as the process-wide slog handler so library packages log
// through it.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "extload"))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetDefault("backend", "wasm")
	viper.SetDefault("module_paths", []string{})
	viper.SetDefault("trust.service", "extload")

	viper.SetEnvPrefix("EXTLOAD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			fmt.Fprintf(os.Stderr, "warning: failed to read config: %v\n", err)
		}
	}

	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
	})
	if verbose {
		logger.SetLevel(charmlog.DebugLevel)
	}
	slog.SetDefault(slog.New(logger))
}

// selectedBackend creates the loader backend from the --backend flag or
// config.
func selectedBackend() (loader.Backend, error) {
	name := backendName
	if name == "" {
		name = viper.GetString("backend")
	}
	return loader.New(name)
}

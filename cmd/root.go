// Package cmd wires the command line surface: configuration loading, logger
// setup and the individual subcommands.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/reforge-tools/reforge/internal/config"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "reforge",
	Short:         "Reforge: readable, patchable sources from obfuscated game archives",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "reforge.hcl", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// storeDir resolves the artifact store location, defaulting under the
// user's home directory.
func storeDir(cfg *config.Config) (string, error) {
	if cfg.StoreDirectory != "" {
		return cfg.StoreDirectory, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".reforge", "store"), nil
}

func libraryCacheDir(cfg *config.Config, store string) string {
	if cfg.LibraryCacheDirectory != "" {
		return cfg.LibraryCacheDirectory
	}
	return filepath.Join(store, "libdeps")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

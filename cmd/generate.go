package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/reforge-tools/reforge/internal/artifact"
	"github.com/reforge-tools/reforge/internal/decompile"
	"github.com/reforge-tools/reforge/internal/download"
	"github.com/reforge-tools/reforge/internal/launcher"
	"github.com/reforge-tools/reforge/internal/libdep"
	"github.com/reforge-tools/reforge/internal/pipeline"
	"github.com/reforge-tools/reforge/internal/source"
	"github.com/reforge-tools/reforge/internal/stages"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the full generation pipeline against the configured versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Decompiler == nil {
			return fmt.Errorf("configuration: a decompiler block is required to generate")
		}

		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		dir, err := storeDir(cfg)
		if err != nil {
			return err
		}
		index, err := artifact.OpenIndex(filepath.Join(dir, "index.db"))
		if err != nil {
			return err
		}
		defer index.Close()
		store, err := artifact.NewStore(dir, logger, artifact.WithIndex(index))
		if err != nil {
			return err
		}

		var formatter source.Formatter = source.NopFormatter{}
		if cfg.Formatter != nil {
			formatter = &source.ExecFormatter{Path: cfg.Formatter.Command, Args: cfg.Formatter.Args}
		}
		env := stages.Environment{
			Launcher:   launcher.NewClient(logger),
			Downloader: download.NewClient(logger),
			Libraries:  libdep.NewResolver(libraryCacheDir(cfg, dir), logger),
			Engine: &decompile.ExecEngine{
				JavaPath: cfg.Decompiler.JavaPath,
				ToolJar:  cfg.Decompiler.Jar,
				Options:  decompile.DefaultOptions(),
				Logger:   logger,
			},
			Formatter: formatter,
		}

		plan, err := stages.Plan(cfg, env)
		if err != nil {
			return err
		}
		return pipeline.New(store, logger, plan...).Execute(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

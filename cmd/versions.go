package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reforge-tools/reforge/internal/launcher"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List the game versions the launcher manifest knows about",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		m, err := launcher.NewClient(logger).Manifest(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("latest release:  %s\n", m.LatestRelease)
		fmt.Printf("latest snapshot: %s\n", m.LatestSnapshot)
		for _, v := range m.Versions {
			fmt.Printf("%-20s %s\n", v.ID, v.Type)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionsCmd)
}

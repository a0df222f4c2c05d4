package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/reforge-tools/reforge/internal/artifact"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect the artifact store",
}

var storeLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List published artifacts from the store catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir, err := storeDir(cfg)
		if err != nil {
			return err
		}
		index, err := artifact.OpenIndex(filepath.Join(dir, "index.db"))
		if err != nil {
			return err
		}
		defer index.Close()

		entries, err := index.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("store is empty")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%-60s %10d  %s\n", e.Coordinate, e.Size, e.Published.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	storeCmd.AddCommand(storeLsCmd)
	rootCmd.AddCommand(storeCmd)
}

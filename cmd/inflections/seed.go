package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var seedDir string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load YAML seed files into the local store",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		dir := seedDir
		if dir == "" {
			dir = cfg.Store.Bolt.SeedDir
		}
		if err := b.reseed(cmd.Context(), dir, log); err != nil {
			return err
		}

		// tables missing from the seed directory are kept, so list what the
		// store holds now
		names, err := b.bolt.Tables()
		if err != nil {
			return fmt.Errorf("list local tables: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "tables: %s\n", strings.Join(names, ", "))
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedDir, "dir", "", "seed directory (default: store.bolt.seed_dir)")
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Rewrite legacy plain partition files as gzip",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openStorage(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		migrated, err := s.MigrateLegacy(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "migrated %d file(s)\n", migrated)
		for _, path := range s.LegacyFiles() {
			fmt.Fprintf(out, "skipped %s (not at its canonical location)\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

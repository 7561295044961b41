package commands

import (
	"fmt"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/olovm/cora-diskstorage/data"
	"github.com/olovm/cora-diskstorage/internal/partfile"
)

var catFormat string

var catCmd = &cobra.Command{
	Use:   "cat <file>",
	Short: "Print one partition file",
	Long: `Decode a partition file, compressed or plain, and print its document.

Examples:
  diskstorage cat /data/cora/sys1/person_sys1.json.gz
  diskstorage cat /data/cora/sys1/collectedData_sys1.json.gz -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		store, err := partfile.New(filepath.Dir(path), partfile.Options{Converter: data.NewConverter(cfg.Codec())})
		if err != nil {
			return err
		}
		doc, err := store.Read(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		text, err := data.NewConverter(cfg.Codec()).Serialize(doc)
		if err != nil {
			return err
		}
		var tree any
		if err := json.Unmarshal(text, &tree); err != nil {
			return err
		}
		return writeStructured(cmd.OutOrStdout(), catFormat, tree)
	},
}

func init() {
	catCmd.Flags().StringVarP(&catFormat, "output", "o", formatJSON, "output format (json, yaml)")
	rootCmd.AddCommand(catCmd)
}

package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/olovm/cora-diskstorage/internal/fs"
	"github.com/olovm/cora-diskstorage/internal/partition"
	"github.com/olovm/cora-diskstorage/internal/scan"
)

var lsFormat string

type fileEntry struct {
	Path     string `json:"path" yaml:"path"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Divider  string `json:"divider,omitempty" yaml:"divider,omitempty"`
	Form     string `json:"form" yaml:"form"`
	Size     int64  `json:"size" yaml:"size"`
}

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List partition files",
	Long: `List every file below the base path with its category, divider and form.

Form is gzip or plain for partition files, temp for leftovers of an
interrupted atomic write and invalid for names that would make open fail.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Base == "" {
			return fmt.Errorf("base path is required")
		}
		entries, err := listFiles(cfg.Base)
		if err != nil {
			return err
		}
		if lsFormat != formatTable {
			return writeStructured(cmd.OutOrStdout(), lsFormat, entries)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PATH\tCATEGORY\tDIVIDER\tFORM\tSIZE")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", e.Path, e.Category, e.Divider, e.Form, e.Size)
		}
		return w.Flush()
	},
}

func listFiles(base string) ([]fileEntry, error) {
	paths, err := scan.Scan(fs.Default, base)
	if err != nil {
		return nil, err
	}
	entries := make([]fileEntry, 0, len(paths))
	for _, path := range paths {
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return nil, err
		}
		e := fileEntry{Path: filepath.ToSlash(rel)}
		if info, err := os.Stat(path); err == nil {
			e.Size = info.Size()
		}

		filename := filepath.Base(path)
		switch name, err := partition.Parse(filename); {
		case partition.IsTemp(filename):
			e.Form = "temp"
		case err != nil:
			e.Form = "invalid"
		default:
			e.Category, e.Divider = name.Category, name.Divider
			e.Form = "plain"
			if name.Compressed {
				e.Form = "gzip"
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func init() {
	lsCmd.Flags().StringVarP(&lsFormat, "output", "o", formatTable, "output format (table, json, yaml)")
	rootCmd.AddCommand(lsCmd)
}

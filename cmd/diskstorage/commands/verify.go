package commands

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var verifyFormat string

type verifyReport struct {
	Files          int            `json:"files" yaml:"files"`
	LegacyFiles    int            `json:"legacy_files" yaml:"legacy_files"`
	Records        map[string]int `json:"records" yaml:"records"`
	LinkLists      int            `json:"link_lists" yaml:"link_lists"`
	CollectedTerms map[string]int `json:"collected_terms" yaml:"collected_terms"`
	Duration       string         `json:"duration" yaml:"duration"`
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Load the tree into a fresh index and report its contents",
	Long: `Verify opens the base path exactly like the storage does at startup.
It fails on the first unreadable, malformed or corrupt file and otherwise
prints record counts per type and collected term counts per divider.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, idx, err := openStorage(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		stats := s.RecoveryStats()
		report := verifyReport{
			Files:          stats.Files,
			LegacyFiles:    stats.LegacyFiles,
			Records:        make(map[string]int),
			LinkLists:      len(idx.LinkLists()),
			CollectedTerms: make(map[string]int),
			Duration:       stats.Duration.String(),
		}
		for _, recordType := range idx.RecordTypes() {
			report.Records[recordType] = len(idx.RecordsOfType(recordType))
		}
		for divider, terms := range idx.CollectedTermsByDivider() {
			report.CollectedTerms[divider] = len(terms)
		}

		if verifyFormat != formatTable {
			return writeStructured(cmd.OutOrStdout(), verifyFormat, report)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "files: %d (legacy: %d)\n", report.Files, report.LegacyFiles)
		fmt.Fprintf(out, "link lists: %d\n", report.LinkLists)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tRECORDS")
		for _, recordType := range idx.RecordTypes() {
			fmt.Fprintf(w, "%s\t%d\n", recordType, report.Records[recordType])
		}
		fmt.Fprintln(w, "DIVIDER\tTERMS")
		dividers := make([]string, 0, len(report.CollectedTerms))
		for d := range report.CollectedTerms {
			dividers = append(dividers, d)
		}
		slices.Sort(dividers)
		for _, d := range dividers {
			fmt.Fprintf(w, "%s\t%d\n", d, report.CollectedTerms[d])
		}
		return w.Flush()
	},
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyFormat, "output", "o", formatTable, "output format (table, json, yaml)")
	rootCmd.AddCommand(verifyCmd)
}

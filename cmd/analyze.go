package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ducminh1220/netscope/internal/probe"
)

var (
	analyzeProbes  []string
	analyzeExport  string
	analyzeNoStore bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <target>",
	Short: "Run the full diagnostics suite against a host or domain",
	Long: `Analyze runs every probe (or the subset given with --probes)
concurrently against the target and prints a combined report. Probes
that fail or time out are reported individually; the rest of the
report is still produced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds, err := selectedKinds(analyzeProbes)
		if err != nil {
			return err
		}
		return runDiagnostics(args[0], kinds, analyzeExport, analyzeNoStore)
	},
}

func selectedKinds(names []string) ([]probe.Kind, error) {
	if len(names) == 0 {
		return probe.AllKinds(), nil
	}
	// Accept both repeated flags and one comma-separated value.
	var flat []string
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			if p := strings.TrimSpace(part); p != "" {
				flat = append(flat, p)
			}
		}
	}
	return probe.ParseKinds(flat)
}

func init() {
	analyzeCmd.Flags().StringSliceVar(&analyzeProbes, "probes", nil,
		fmt.Sprintf("probes to run (default all): %s", strings.Join(kindNames(), ", ")))
	analyzeCmd.Flags().StringVar(&analyzeExport, "export", "", "also write the report to a file: json, csv, text or pdf")
	analyzeCmd.Flags().BoolVar(&analyzeNoStore, "no-history", false, "do not archive this run")
}

func kindNames() []string {
	kinds := probe.AllKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ducminh1220/netscope/internal/export"
	"github.com/ducminh1220/netscope/internal/history"
	"github.com/ducminh1220/netscope/internal/probe"
)

var (
	historyLimit        int
	historyExportFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse archived diagnostic runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list [target]",
	Short: "List archived runs, newest first, optionally for one target",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		limit := historyLimit
		if len(args) == 1 {
			// Filter first, then cut to the limit.
			limit = 0
		}
		recs, err := store.List(limit)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			filtered := recs[:0]
			for _, rec := range recs {
				if rec.Target == args[0] {
					filtered = append(filtered, rec)
				}
			}
			recs = filtered
			if historyLimit > 0 && len(recs) > historyLimit {
				recs = recs[:historyLimit]
			}
		}
		if len(recs) == 0 {
			fmt.Println(colorWarn("No archived runs."))
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTARGET\tSTATUS\tSTARTED\tELAPSED")
		for _, rec := range recs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.0f ms\n",
				rec.ID,
				rec.Target,
				formatStatusWithColor(rec.Status),
				rec.StartedAt.Local().Format(time.DateTime),
				rec.ElapsedMS,
			)
		}
		return tw.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Render one archived run (use 'latest' for the most recent)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := lookupRecord(store, args[0])
		if err != nil {
			return err
		}
		report, err := decodeReport(rec)
		if err != nil {
			return err
		}
		renderReport(os.Stdout, report)
		return nil
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Re-export an archived run to a report file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(historyExportFormat)
		if err != nil {
			return err
		}

		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := lookupRecord(store, args[0])
		if err != nil {
			return err
		}
		report, err := decodeReport(rec)
		if err != nil {
			return err
		}

		path, err := export.WriteFile(report, format, cfg.Export.Dir, cfg.Export.Prefix)
		if err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", colorInfo(path))
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove one archived run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Println("Deleted", args[0])
		return nil
	},
}

func lookupRecord(store *history.Store, id string) (*history.Record, error) {
	if id == "latest" {
		return store.Latest()
	}
	return store.Get(id)
}

func decodeReport(rec *history.Record) (*probe.Report, error) {
	if len(rec.Report) == 0 {
		return nil, fmt.Errorf("run %s has no stored report", rec.ID)
	}
	report := &probe.Report{}
	if err := json.Unmarshal(rec.Report, report); err != nil {
		return nil, fmt.Errorf("decode stored report: %w", err)
	}
	return report, nil
}

func init() {
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to list (0 = all)")
	historyExportCmd.Flags().StringVar(&historyExportFormat, "format", "json", "export format: json, csv, text or pdf")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ducminh1220/netscope/internal/probe"
)

var (
	diagnoseExport  string
	diagnoseNoStore bool
)

// diagnoseKinds is the quick connectivity subset: no port scan, no
// throughput measurement, no registry lookups.
var diagnoseKinds = []probe.Kind{
	probe.KindLocalNet,
	probe.KindDNS,
	probe.KindPing,
	probe.KindTraceroute,
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <target>",
	Short: "Quick connectivity check: local network, DNS, ping, traceroute",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDiagnostics(args[0], diagnoseKinds, diagnoseExport, diagnoseNoStore)
	},
}

func init() {
	diagnoseCmd.Flags().StringVar(&diagnoseExport, "export", "", "also write the report to a file: json, csv, text or pdf")
	diagnoseCmd.Flags().BoolVar(&diagnoseNoStore, "no-history", false, "do not archive this run")
}

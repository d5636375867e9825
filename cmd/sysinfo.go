package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ducminh1220/netscope/internal/sysinfo"
)

var sysinfoJSON bool

var sysinfoCmd = &cobra.Command{
	Use:   "sysinfo",
	Short: "Show this machine's network identity",
	Long: `Sysinfo prints host metadata, local and public IP addresses,
network interfaces, configured DNS servers and a one-second throughput
sample.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		collector := &sysinfo.Collector{}
		info, err := collector.Collect(ctx)
		if err != nil {
			return err
		}

		if sysinfoJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		printSysinfo(info)
		return nil
	},
}

func printSysinfo(info *sysinfo.Info) {
	fmt.Println(colorInfo("SYSTEM"))
	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Hostname\t%s\n", info.Hostname)
	fmt.Fprintf(tw, "Platform\t%s (%s)\n", info.Platform, info.OS)
	if info.KernelVersion != "" {
		fmt.Fprintf(tw, "Kernel\t%s\n", info.KernelVersion)
	}
	fmt.Fprintf(tw, "Uptime\t%s\n", (time.Duration(info.UptimeSeconds) * time.Second).String())
	tw.Flush()

	fmt.Println()
	fmt.Println(colorInfo("ADDRESSES"))
	tw = tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Local IPv4\t%s\n", orDash(info.LocalIPv4))
	fmt.Fprintf(tw, "Local IPv6\t%s\n", orDash(info.LocalIPv6))
	fmt.Fprintf(tw, "Public IP\t%s\n", orDash(info.PublicIP))
	fmt.Fprintf(tw, "MAC\t%s\n", orDash(info.MAC))
	if len(info.DNSServers) > 0 {
		fmt.Fprintf(tw, "DNS servers\t%s\n", strings.Join(info.DNSServers, ", "))
	}
	tw.Flush()

	fmt.Println()
	fmt.Println(colorInfo("INTERFACES"))
	tw = tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATE\tMAC\tADDRESSES")
	for _, iface := range info.Interfaces {
		state := colorError("down")
		if iface.Up {
			state = colorSuccess("up")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", iface.Name, state, orDash(iface.MAC), strings.Join(iface.Addresses, ", "))
	}
	tw.Flush()

	fmt.Println()
	fmt.Printf("Throughput sample: rx %.1f KB/s, tx %.1f KB/s\n",
		info.RxBytesPerSec/1024, info.TxBytesPerSec/1024)
}

func init() {
	sysinfoCmd.Flags().BoolVar(&sysinfoJSON, "json", false, "emit JSON instead of the table view")
}

package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ducminh1220/netscope/internal/probe"
)

// renderReport prints the summary table followed by per-probe details.
func renderReport(w io.Writer, report *probe.Report) {
	fmt.Fprintf(w, "Target: %s\n", colorInfo(report.Target))
	fmt.Fprintf(w, "Overall: %s (%.0f ms)\n\n", formatStatusWithColor(string(report.OverallStatus)), report.ElapsedMS)

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROBE\tSTATUS\tDURATION\tSUMMARY")
	for _, kind := range probe.AllKinds() {
		res, ok := report.Results[kind]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%.0f ms\t%s\n",
			res.Name,
			formatStatusWithColor(string(res.Status)),
			res.DurationMS,
			summaryLine(res),
		)
	}
	tw.Flush()

	for _, kind := range probe.AllKinds() {
		res, ok := report.Results[kind]
		if !ok {
			continue
		}
		if detail := detailLines(res); len(detail) > 0 {
			fmt.Fprintf(w, "\n%s\n", colorInfo(strings.ToUpper(res.Name)))
			for _, line := range detail {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
	}
}

// summaryLine condenses a result to one table cell.
func summaryLine(res probe.Result) string {
	if res.Status == probe.StatusSkipped {
		return res.Reason
	}
	if res.Error != "" && !res.Status.Succeeded() {
		return res.Error
	}
	switch {
	case res.DNS != nil:
		return fmt.Sprintf("%d record types via %s", len(res.DNS.Records), res.DNS.Nameserver)
	case res.LocalNet != nil:
		return fmt.Sprintf("%d interfaces, gateway %s", len(res.LocalNet.Interfaces), orDash(res.LocalNet.Gateway))
	case res.LanScan != nil:
		return fmt.Sprintf("%d devices on %s", len(res.LanScan.Devices), res.LanScan.Subnet)
	case res.Ping != nil:
		return fmt.Sprintf("avg %.1f ms, %.0f%% loss (%s)", res.Ping.AvgMS, res.Ping.LossPct, res.Ping.Method)
	case res.PacketLoss != nil:
		return fmt.Sprintf("%.1f%% loss over %d packets", res.PacketLoss.LossPct, res.PacketLoss.Sent)
	case res.PortScan != nil:
		return fmt.Sprintf("%d/%d ports open", len(res.PortScan.OpenPorts), res.PortScan.Scanned)
	case res.Traceroute != nil:
		return fmt.Sprintf("%d hops, reached=%v", len(res.Traceroute.Hops), res.Traceroute.Reached)
	case res.SpeedTest != nil:
		return fmt.Sprintf("down %.1f / up %.1f Mbps", res.SpeedTest.DownloadMbps, res.SpeedTest.UploadMbps)
	case res.Whois != nil:
		return "registrar " + orDash(res.Whois.Registrar)
	case res.Cert != nil:
		return fmt.Sprintf("expires in %d days", res.Cert.DaysUntilExpiry)
	}
	return "-"
}

// detailLines expands the payload for the per-probe section below the
// table. Probes whose summary already says everything return nil.
func detailLines(res probe.Result) []string {
	var lines []string
	switch {
	case res.DNS != nil:
		for _, rtype := range []string{"A", "AAAA", "CNAME", "MX", "TXT", "NS"} {
			if vals := res.DNS.Records[rtype]; len(vals) > 0 {
				lines = append(lines, fmt.Sprintf("%-6s %s", rtype, strings.Join(vals, ", ")))
			}
		}
	case res.LocalNet != nil:
		for _, iface := range res.LocalNet.Interfaces {
			state := colorError("down")
			if iface.Up {
				state = colorSuccess("up")
			}
			lines = append(lines, fmt.Sprintf("%-10s %s  %s", iface.Name, state, strings.Join(iface.Addresses, ", ")))
		}
		if len(res.LocalNet.DNSServers) > 0 {
			lines = append(lines, "dns: "+strings.Join(res.LocalNet.DNSServers, ", "))
		}
	case res.LanScan != nil && len(res.LanScan.Devices) > 0:
		for _, dev := range res.LanScan.Devices {
			name := dev.Name
			if name == "" {
				name = "-"
			}
			lines = append(lines, fmt.Sprintf("%-15s %-30s %7.2f ms", dev.Address, name, dev.RTTMS))
		}
	case res.PortScan != nil && len(res.PortScan.OpenPorts) > 0:
		for _, p := range res.PortScan.OpenPorts {
			line := fmt.Sprintf("%5d/tcp  %-6s %s", p.Port, p.State, p.Service)
			if p.Banner != "" {
				line += "  " + firstLine(p.Banner)
			}
			lines = append(lines, line)
		}
	case res.Traceroute != nil:
		for _, hop := range res.Traceroute.Hops {
			if hop.Silent {
				lines = append(lines, fmt.Sprintf("%2d  *", hop.Number))
				continue
			}
			name := hop.Address
			if hop.Name != "" {
				name = fmt.Sprintf("%s (%s)", strings.TrimSuffix(hop.Name, "."), hop.Address)
			}
			lines = append(lines, fmt.Sprintf("%2d  %-50s %7.2f ms", hop.Number, name, hop.RTTMS))
		}
	case res.Whois != nil:
		w := res.Whois
		if w.Registrar != "" {
			lines = append(lines, "registrar: "+w.Registrar)
		}
		if w.CreatedDate != "" {
			lines = append(lines, "created:   "+w.CreatedDate)
		}
		if w.ExpirationDate != "" {
			lines = append(lines, "expires:   "+w.ExpirationDate)
		}
		if len(w.NameServers) > 0 {
			lines = append(lines, "ns:        "+strings.Join(w.NameServers, ", "))
		}
	case res.Cert != nil:
		c := res.Cert
		lines = append(lines,
			"subject: "+c.Subject,
			"issuer:  "+c.Issuer,
			fmt.Sprintf("valid:   %s to %s", c.NotBefore, c.NotAfter),
		)
		for _, warn := range c.Warnings {
			lines = append(lines, colorWarn("warning: "+warn))
		}
	}
	return lines
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

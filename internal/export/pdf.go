package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/ducminh1220/netscope/internal/probe"
)

// writePDF renders a one-target diagnostics report as an A4 PDF: header
// metadata, an overall summary line, then one section per probe.
func writePDF(w io.Writer, report *probe.Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("Network Diagnostics: %s", report.Target), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Started: %s", report.StartedAt.Format("2006-01-02 15:04:05 MST")), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Completed: %s", report.CompletedAt.Format("2006-01-02 15:04:05 MST")), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Elapsed: %.0f ms", report.ElapsedMS), "", 1, "", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Overall: %s", strings.ToUpper(string(report.OverallStatus))), "", 1, "", false, 0, "")
	pdf.Ln(2)

	for _, kind := range probe.AllKinds() {
		res, ok := report.Results[kind]
		if !ok {
			continue
		}

		if pdf.GetY() > 250 {
			pdf.AddPage()
		}

		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(0, 7, fmt.Sprintf("%s - %s", res.Name, strings.ToUpper(string(res.Status))), "", 1, "", true, 0, "")
		pdf.Ln(1)

		pdf.SetFont("Arial", "", 9)
		if res.Error != "" {
			pdf.MultiCell(0, 5, "Error: "+res.Error, "", "", false)
		}
		if res.Reason != "" {
			pdf.MultiCell(0, 5, "Skipped: "+res.Reason, "", "", false)
		}
		for _, line := range probeLines(res) {
			if pdf.GetY() > 270 {
				pdf.AddPage()
			}
			pdf.MultiCell(0, 5, line, "", "", false)
		}
		pdf.CellFormat(0, 5, fmt.Sprintf("Duration: %.0f ms", res.DurationMS), "", 1, "", false, 0, "")
		pdf.Ln(3)
	}

	return pdf.Output(w)
}

// probeLines summarizes a probe payload as human-readable lines.
func probeLines(res probe.Result) []string {
	var lines []string
	switch {
	case res.DNS != nil:
		for _, rtype := range []string{"A", "AAAA", "CNAME", "MX", "TXT", "NS"} {
			if vals := res.DNS.Records[rtype]; len(vals) > 0 {
				lines = append(lines, fmt.Sprintf("%s: %s", rtype, strings.Join(vals, ", ")))
			}
		}
		lines = append(lines, "Nameserver: "+res.DNS.Nameserver)
	case res.LocalNet != nil:
		for _, iface := range res.LocalNet.Interfaces {
			state := "down"
			if iface.Up {
				state = "up"
			}
			lines = append(lines, fmt.Sprintf("%s (%s): %s", iface.Name, state, strings.Join(iface.Addresses, ", ")))
		}
		if res.LocalNet.Gateway != "" {
			lines = append(lines, "Gateway: "+res.LocalNet.Gateway)
		}
		if len(res.LocalNet.DNSServers) > 0 {
			lines = append(lines, "DNS servers: "+strings.Join(res.LocalNet.DNSServers, ", "))
		}
	case res.LanScan != nil:
		lines = append(lines, fmt.Sprintf("Subnet %s: %d hosts swept, %d responsive", res.LanScan.Subnet, res.LanScan.Scanned, len(res.LanScan.Devices)))
		for _, dev := range res.LanScan.Devices {
			line := fmt.Sprintf("  %s  %.2f ms", dev.Address, dev.RTTMS)
			if dev.Name != "" {
				line = fmt.Sprintf("  %s (%s)  %.2f ms", dev.Address, dev.Name, dev.RTTMS)
			}
			lines = append(lines, line)
		}
	case res.Ping != nil:
		p := res.Ping
		lines = append(lines,
			fmt.Sprintf("Sent: %d, received: %d, loss: %.1f%% (%s)", p.PacketsSent, p.PacketsRecv, p.LossPct, p.Method),
			fmt.Sprintf("RTT min/avg/max/stddev: %.2f/%.2f/%.2f/%.2f ms", p.MinMS, p.AvgMS, p.MaxMS, p.StdDevMS),
		)
	case res.PacketLoss != nil:
		l := res.PacketLoss
		lines = append(lines, fmt.Sprintf("Sent: %d, received: %d, lost: %d (%.1f%%)", l.Sent, l.Received, l.Lost, l.LossPct))
	case res.PortScan != nil:
		lines = append(lines, fmt.Sprintf("Scanned %d ports, %d open", res.PortScan.Scanned, len(res.PortScan.OpenPorts)))
		for _, p := range res.PortScan.OpenPorts {
			lines = append(lines, fmt.Sprintf("  %d/tcp %s (%s)", p.Port, p.State, p.Service))
		}
	case res.Traceroute != nil:
		lines = append(lines, fmt.Sprintf("Destination: %s, reached: %v", res.Traceroute.Destination, res.Traceroute.Reached))
		for _, hop := range res.Traceroute.Hops {
			if hop.Silent {
				lines = append(lines, fmt.Sprintf("  %2d  *", hop.Number))
				continue
			}
			lines = append(lines, fmt.Sprintf("  %2d  %s  %.2f ms", hop.Number, hop.Address, hop.RTTMS))
		}
	case res.SpeedTest != nil:
		s := res.SpeedTest
		lines = append(lines,
			fmt.Sprintf("Download: %.2f Mbps (%d bytes)", s.DownloadMbps, s.BytesDownloaded),
			fmt.Sprintf("Upload: %.2f Mbps (%d bytes)", s.UploadMbps, s.BytesUploaded),
			fmt.Sprintf("Latency: %.1f ms", s.PingMS),
		)
	case res.Whois != nil:
		wh := res.Whois
		if wh.Registrar != "" {
			lines = append(lines, "Registrar: "+wh.Registrar)
		}
		if wh.CreatedDate != "" {
			lines = append(lines, "Created: "+wh.CreatedDate)
		}
		if wh.ExpirationDate != "" {
			lines = append(lines, "Expires: "+wh.ExpirationDate)
		}
		if len(wh.NameServers) > 0 {
			lines = append(lines, "Name servers: "+strings.Join(wh.NameServers, ", "))
		}
	case res.Cert != nil:
		c := res.Cert
		lines = append(lines,
			"Subject: "+c.Subject,
			"Issuer: "+c.Issuer,
			fmt.Sprintf("Valid: %s to %s (%d days left)", c.NotBefore, c.NotAfter, c.DaysUntilExpiry),
			"Fingerprint: "+c.FingerprintSHA,
		)
		for _, warn := range c.Warnings {
			lines = append(lines, "Warning: "+warn)
		}
	}
	return lines
}

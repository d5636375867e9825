// Package sysinfo collects a snapshot of the local machine's network
// identity: host metadata, local and public addresses, interfaces and
// a short throughput sample.
package sysinfo

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/shirou/gopsutil/v3/host"
	psnet "github.com/shirou/gopsutil/v3/net"
)

// Interface is one non-loopback adapter.
type Interface struct {
	Name      string   `json:"name"`
	Up        bool     `json:"up"`
	MAC       string   `json:"mac,omitempty"`
	Addresses []string `json:"addresses,omitempty"`
}

// Info is the collected snapshot. Fields that could not be determined
// are left empty; collection is best-effort by design.
type Info struct {
	Hostname      string      `json:"hostname"`
	OS            string      `json:"os"`
	Platform      string      `json:"platform"`
	KernelVersion string      `json:"kernel_version,omitempty"`
	UptimeSeconds uint64      `json:"uptime_seconds"`
	LocalIPv4     string      `json:"local_ipv4,omitempty"`
	LocalIPv6     string      `json:"local_ipv6,omitempty"`
	PublicIP      string      `json:"public_ip,omitempty"`
	MAC           string      `json:"mac,omitempty"`
	Interfaces    []Interface `json:"interfaces"`
	DNSServers    []string    `json:"dns_servers,omitempty"`
	RxBytesPerSec float64     `json:"rx_bytes_per_sec"`
	TxBytesPerSec float64     `json:"tx_bytes_per_sec"`
}

// defaultPublicIPURLs is tried in order until one answers.
var defaultPublicIPURLs = []string{
	"https://api.ipify.org",
	"https://ipinfo.io/ip",
	"https://checkip.amazonaws.com",
	"https://ifconfig.me/ip",
}

// Collector gathers an Info snapshot.
type Collector struct {
	Client       *http.Client  // nil uses a 5s client
	PublicIPURLs []string      // empty uses the default chain
	SampleWindow time.Duration // throughput sample length; default 1s
}

// Collect builds the snapshot. Only interface enumeration failure is a
// hard error; every other field degrades to empty.
func (c *Collector) Collect(ctx context.Context) (*Info, error) {
	info := &Info{}

	if hi, err := host.InfoWithContext(ctx); err == nil {
		info.Hostname = hi.Hostname
		info.OS = hi.OS
		info.Platform = fmt.Sprintf("%s %s", hi.Platform, hi.PlatformVersion)
		info.KernelVersion = hi.KernelVersion
		info.UptimeSeconds = hi.Uptime
	}

	ifaces, err := collectInterfaces()
	if err != nil {
		return nil, fmt.Errorf("interface enumeration failed: %w", err)
	}
	info.Interfaces = ifaces

	info.LocalIPv4 = outboundIP("udp4", "8.8.8.8:80")
	info.LocalIPv6 = outboundIP("udp6", "[2001:4860:4860::8888]:80")
	info.MAC = macForIP(info.LocalIPv4)
	info.PublicIP = c.publicIP(ctx)
	info.DNSServers = dnsServers()
	info.RxBytesPerSec, info.TxBytesPerSec = c.sampleThroughput(ctx)

	return info, nil
}

func collectInterfaces() ([]Interface, error) {
	stats, err := psnet.Interfaces()
	if err != nil {
		return nil, err
	}
	out := []Interface{}
	for _, iface := range stats {
		if strings.HasPrefix(iface.Name, "lo") {
			continue
		}
		entry := Interface{Name: iface.Name, MAC: iface.HardwareAddr}
		for _, flag := range iface.Flags {
			if flag == "up" {
				entry.Up = true
			}
		}
		for _, addr := range iface.Addrs {
			if strings.HasPrefix(addr.Addr, "fe80") {
				continue
			}
			entry.Addresses = append(entry.Addresses, addr.Addr)
		}
		out = append(out, entry)
	}
	return out, nil
}

// outboundIP discovers the local address the kernel would use to reach
// the internet. The dial is connectionless; no packet is sent.
func outboundIP(network, probe string) string {
	conn, err := net.Dial(network, probe)
	if err != nil {
		return ""
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return ""
}

// macForIP finds the hardware address of the interface holding ip.
func macForIP(ip string) string {
	if ip == "" {
		return ""
	}
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if ok && ipnet.IP.String() == ip {
				return iface.HardwareAddr.String()
			}
		}
	}
	return ""
}

// publicIP walks the fallback chain until one endpoint responds with a
// parseable address.
func (c *Collector) publicIP(ctx context.Context) string {
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	urls := c.PublicIPURLs
	if len(urls) == 0 {
		urls = defaultPublicIPURLs
	}

	for _, u := range urls {
		if ctx.Err() != nil {
			return ""
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			continue
		}
		resp, err := client.Do(req)
		if err != nil {
			continue
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
		resp.Body.Close()
		if err != nil || resp.StatusCode != http.StatusOK {
			continue
		}
		candidate := strings.TrimSpace(string(body))
		if net.ParseIP(candidate) != nil {
			return candidate
		}
	}
	return ""
}

func dnsServers() []string {
	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(conf.Servers) == 0 {
		return nil
	}
	return conf.Servers
}

// sampleThroughput reads interface counters twice across the sample
// window and reports the per-second deltas summed over all interfaces.
func (c *Collector) sampleThroughput(ctx context.Context) (rx, tx float64) {
	window := c.SampleWindow
	if window <= 0 {
		window = time.Second
	}

	before, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil || len(before) == 0 {
		return 0, 0
	}
	select {
	case <-time.After(window):
	case <-ctx.Done():
		return 0, 0
	}
	after, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil || len(after) == 0 {
		return 0, 0
	}

	secs := window.Seconds()
	rx = float64(after[0].BytesRecv-before[0].BytesRecv) / secs
	tx = float64(after[0].BytesSent-before[0].BytesSent) / secs
	return rx, tx
}

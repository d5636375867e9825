package probe

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/miekg/dns"
	psnet "github.com/shirou/gopsutil/v3/net"
)

// InterfaceInfo describes one non-loopback network interface.
type InterfaceInfo struct {
	Name      string   `json:"name"`
	Up        bool     `json:"up"`
	MAC       string   `json:"mac,omitempty"`
	Addresses []string `json:"addresses,omitempty"`
}

// LocalNetPayload is the local-network context: interfaces, default
// gateway and configured DNS servers.
type LocalNetPayload struct {
	Interfaces []InterfaceInfo `json:"interfaces"`
	Gateway    string          `json:"gateway,omitempty"`
	DNSServers []string        `json:"dns_servers,omitempty"`
}

// LocalNetProber inspects the local machine rather than the target; it
// supplies the context the diagnostics report presents alongside the
// remote probes.
type LocalNetProber struct{}

func (l *LocalNetProber) Kind() Kind { return KindLocalNet }

func (l *LocalNetProber) Probe(ctx context.Context, target Target) Result {
	ifaces, err := collectInterfaces()
	if err != nil {
		return failedResult(KindLocalNet, fmt.Errorf("interface enumeration failed: %w", err))
	}

	active := 0
	for _, iface := range ifaces {
		if iface.Up {
			active++
		}
	}
	if active == 0 {
		return failedResult(KindLocalNet, errors.New("no active network interface found"))
	}

	payload := &LocalNetPayload{
		Interfaces: ifaces,
		Gateway:    defaultGateway(),
		DNSServers: systemDNSServers(),
	}
	return Result{Status: StatusSuccess, LocalNet: payload}
}

func collectInterfaces() ([]InterfaceInfo, error) {
	stats, err := psnet.Interfaces()
	if err != nil {
		return nil, err
	}

	infos := []InterfaceInfo{}
	for _, iface := range stats {
		if strings.HasPrefix(iface.Name, "lo") {
			continue
		}
		info := InterfaceInfo{
			Name: iface.Name,
			MAC:  iface.HardwareAddr,
		}
		for _, flag := range iface.Flags {
			if flag == "up" {
				info.Up = true
			}
		}
		for _, addr := range iface.Addrs {
			// Skip link-local IPv6 noise, as the interface listing is
			// meant for humans.
			if strings.HasPrefix(addr.Addr, "fe80") {
				continue
			}
			info.Addresses = append(info.Addresses, addr.Addr)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// defaultGateway reads the IPv4 default route from /proc/net/route.
// Returns "" on non-Linux systems or when no default route exists.
func defaultGateway() string {
	data, err := os.ReadFile("/proc/net/route")
	if err != nil {
		return ""
	}
	return parseGateway(string(data))
}

func parseGateway(routeTable string) string {
	for _, line := range strings.Split(routeTable, "\n")[1:] {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[1] != "00000000" {
			continue
		}
		raw, err := hex.DecodeString(fields[2])
		if err != nil || len(raw) != 4 {
			continue
		}
		// /proc/net/route stores addresses little-endian.
		ip := make(net.IP, 4)
		binary.LittleEndian.PutUint32(ip, binary.BigEndian.Uint32(raw))
		return ip.String()
	}
	return ""
}

// systemDNSServers reads resolv.conf, falling back to well-known public
// resolvers when nothing is configured.
func systemDNSServers() []string {
	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err == nil && len(conf.Servers) > 0 {
		return conf.Servers
	}
	return []string{"8.8.8.8", "1.1.1.1"}
}

package probe

import "time"

// Defaults mirror the interactive tool this engine grew out of: 4 ping
// packets, 50 loss-sampler packets, 30 traceroute hops, a 10 MB download
// and 1 MB upload for the throughput test.
const (
	DefaultPingCount      = 4
	DefaultLossCount      = 50
	DefaultMaxHops        = 30
	DefaultMaxSilentHops  = 5
	DefaultPortTimeout    = 2 * time.Second
	DefaultPortWorkers    = 10
	DefaultLanWorkers     = 32
	DefaultLanHostTimeout = time.Second
	DefaultProbeTimeout   = 10 * time.Second
	DefaultOverallTimeout = 2 * time.Minute
	DefaultDownloadBytes  = 10 * 1024 * 1024
	DefaultUploadBytes    = 1 * 1024 * 1024
	DefaultDownloadURL    = "https://speed.cloudflare.com/__down?bytes=10000000"
	DefaultUploadURL      = "https://speed.cloudflare.com/__up"
)

// DefaultPorts is the well-known subset scanned when the caller does not
// supply a port list.
var DefaultPorts = []int{
	21, 22, 23, 25, 53, 80, 110, 143, 443, 445,
	3306, 3389, 5432, 5900, 6379, 8080, 8443, 27017,
}

// Config carries per-probe tuning. The zero value is usable: every
// prober falls back to the package defaults for unset fields.
type Config struct {
	Timeout time.Duration // per-probe deadline applied by the Runner

	Nameservers []string // DNS probe: "ip:port" resolvers; empty = system

	PingCount int // ping probe packet count
	LossCount int // packet-loss sampler packet count

	Ports       []int         // port-scan list; empty = DefaultPorts
	PortTimeout time.Duration // per-port connect timeout
	PortWorkers int           // concurrent port dials

	MaxHops       int // traceroute hop budget
	MaxSilentHops int // consecutive unresponsive hops before giving up

	LanSubnet string // subnet-sweep CIDR; empty derives from the default interface

	DownloadURL   string // throughput reference endpoints
	UploadURL     string
	DownloadBytes int64
	UploadBytes   int64
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultProbeTimeout
}

// proberFor maps a Kind to its executor. The switch is exhaustive over
// AllKinds; an unknown kind is rejected earlier by ParseKind.
func proberFor(kind Kind, cfg Config) Prober {
	switch kind {
	case KindDNS:
		return &DNSProber{Timeout: cfg.timeout(), Nameservers: cfg.Nameservers}
	case KindLocalNet:
		return &LocalNetProber{}
	case KindLanScan:
		return &LanScanProber{Subnet: cfg.LanSubnet}
	case KindPing:
		return &PingProber{Count: cfg.PingCount, Timeout: cfg.timeout()}
	case KindPacketLoss:
		return &PacketLossProber{Count: cfg.LossCount, Timeout: cfg.timeout()}
	case KindPortScan:
		return &PortScanProber{
			Ports:       cfg.Ports,
			ConnTimeout: cfg.PortTimeout,
			Workers:     cfg.PortWorkers,
		}
	case KindTraceroute:
		return &TracerouteProber{
			MaxHops:       cfg.MaxHops,
			MaxSilentHops: cfg.MaxSilentHops,
		}
	case KindSpeedTest:
		return &SpeedTestProber{
			DownloadURL:   cfg.DownloadURL,
			UploadURL:     cfg.UploadURL,
			DownloadBytes: cfg.DownloadBytes,
			UploadBytes:   cfg.UploadBytes,
			Timeout:       cfg.timeout(),
		}
	case KindWhois:
		return &WhoisProber{Timeout: cfg.timeout()}
	case KindCertificate:
		return &CertProber{Timeout: cfg.timeout()}
	}
	return nil
}

// applicable reports whether a probe makes sense for the target kind.
// Registry data and domain-only DNS records do not exist for bare IPs;
// those probes are recorded as skipped instead of failed.
func applicable(kind Kind, target Target) (bool, string) {
	if target.IsIP {
		switch kind {
		case KindWhois:
			return false, "whois lookup requires a domain target"
		case KindDNS:
			return false, "dns records require a domain target"
		}
	}
	return true, ""
}

package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// maxSweepHosts caps the sweep so a misconfigured wide prefix (/16 and
// up) cannot turn the probe into a network flood.
const maxSweepHosts = 1024

// Device is one responsive host found on the local subnet.
type Device struct {
	Address string  `json:"address"`
	Name    string  `json:"name,omitempty"`
	RTTMS   float64 `json:"rtt_ms"`
}

// LanScanPayload lists the devices that answered the subnet sweep,
// sorted by address.
type LanScanPayload struct {
	Subnet  string   `json:"subnet"`
	Scanned int      `json:"scanned"`
	Devices []Device `json:"devices"`
}

// LanScanProber sweeps the local IPv4 subnet with single echo requests
// from a bounded worker pool and resolves names for the hosts that
// answer. The remote target is not involved; like the local-network
// probe, this inspects the machine's own segment.
type LanScanProber struct {
	Subnet      string // CIDR override; empty derives from the default interface
	Workers     int
	HostTimeout time.Duration

	// reach is overridable in tests; nil sends one ICMP echo.
	reach func(ctx context.Context, addr string, timeout time.Duration) (float64, bool)
}

func (l *LanScanProber) Kind() Kind { return KindLanScan }

func (l *LanScanProber) Probe(ctx context.Context, target Target) Result {
	prefix, err := l.prefix()
	if err != nil {
		return failedResult(KindLanScan, err)
	}
	hosts := prefixHosts(prefix, maxSweepHosts)
	if len(hosts) == 0 {
		return failedResult(KindLanScan, fmt.Errorf("subnet %s has no scannable hosts", prefix))
	}

	workers := l.Workers
	if workers <= 0 {
		workers = DefaultLanWorkers
	}
	timeout := l.HostTimeout
	if timeout <= 0 {
		timeout = DefaultLanHostTimeout
	}
	reach := l.reach
	if reach == nil {
		reach = icmpReach
	}

	addrChan := make(chan netip.Addr, len(hosts))
	deviceChan := make(chan Device, len(hosts))
	var attempted int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for addr := range addrChan {
				if ctx.Err() != nil {
					return
				}
				atomic.AddInt64(&attempted, 1)
				if rtt, ok := reach(ctx, addr.String(), timeout); ok {
					deviceChan <- Device{
						Address: addr.String(),
						Name:    strings.TrimSuffix(reverseName(addr.String()), "."),
						RTTMS:   rtt,
					}
				}
			}
		}()
	}

	for _, addr := range hosts {
		addrChan <- addr
	}
	close(addrChan)

	go func() {
		wg.Wait()
		close(deviceChan)
	}()

	devices := []Device{}
	for d := range deviceChan {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool {
		a, _ := netip.ParseAddr(devices[i].Address)
		b, _ := netip.ParseAddr(devices[j].Address)
		return a.Less(b)
	})

	payload := &LanScanPayload{
		Subnet:  prefix.String(),
		Scanned: int(atomic.LoadInt64(&attempted)),
		Devices: devices,
	}

	// A sweep cut short by the deadline only keeps what it found.
	if ctx.Err() != nil {
		if len(devices) == 0 {
			return failedResult(KindLanScan, fmt.Errorf("subnet sweep aborted: %w", ctx.Err()))
		}
		return Result{Status: StatusPartial, LanScan: payload}
	}
	return Result{Status: StatusSuccess, LanScan: payload}
}

func (l *LanScanProber) prefix() (netip.Prefix, error) {
	if l.Subnet != "" {
		prefix, err := netip.ParsePrefix(l.Subnet)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("invalid subnet %q: %w", l.Subnet, err)
		}
		if !prefix.Addr().Is4() {
			return netip.Prefix{}, fmt.Errorf("subnet %q is not IPv4", l.Subnet)
		}
		return prefix.Masked(), nil
	}
	return localIPv4Prefix()
}

// localIPv4Prefix derives the subnet of the first up, non-loopback
// IPv4 interface.
func localIPv4Prefix() (netip.Prefix, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("interface enumeration failed: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			v4 := ipnet.IP.To4()
			if v4 == nil {
				continue
			}
			ones, _ := ipnet.Mask.Size()
			addr, ok := netip.AddrFromSlice(v4)
			if !ok {
				continue
			}
			return netip.PrefixFrom(addr, ones).Masked(), nil
		}
	}
	return netip.Prefix{}, errors.New("no active IPv4 interface to derive a subnet from")
}

// prefixHosts enumerates the usable addresses of an IPv4 prefix,
// dropping the network and broadcast addresses for prefixes that have
// them, capped at limit hosts.
func prefixHosts(prefix netip.Prefix, limit int) []netip.Addr {
	prefix = prefix.Masked()
	var hosts []netip.Addr
	full := true
	for addr := prefix.Addr(); prefix.Contains(addr); addr = addr.Next() {
		if len(hosts) == limit+2 {
			full = false
			break
		}
		hosts = append(hosts, addr)
	}
	if prefix.Bits() <= 30 {
		if len(hosts) > 0 {
			hosts = hosts[1:]
		}
		if full && len(hosts) > 0 {
			hosts = hosts[:len(hosts)-1]
		}
	}
	if len(hosts) > limit {
		hosts = hosts[:limit]
	}
	return hosts
}

// icmpReach sends a single unprivileged echo and reports the RTT.
func icmpReach(ctx context.Context, addr string, timeout time.Duration) (float64, bool) {
	pinger, err := probing.NewPinger(addr)
	if err != nil {
		return 0, false
	}
	pinger.Count = 1
	pinger.Timeout = timeout
	pinger.SetPrivileged(false)

	if err := pinger.RunWithContext(ctx); err != nil {
		return 0, false
	}
	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return 0, false
	}
	return durationMS(stats.AvgRtt), true
}

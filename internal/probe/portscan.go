package probe

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// PortInfo describes one responsive TCP port.
type PortInfo struct {
	Port    int    `json:"port"`
	State   string `json:"state"`
	Service string `json:"service"`
	Banner  string `json:"banner,omitempty"`
}

// PortScanPayload lists the responsive ports found. An empty OpenPorts
// slice is a successful scan, not a failure. Scanned counts the ports
// actually attempted, which is less than the requested list when the
// deadline cuts the scan short.
type PortScanPayload struct {
	OpenPorts  []PortInfo `json:"open_ports"`
	Scanned    int        `json:"scanned"`
	DurationMS float64    `json:"scan_duration_ms"`
}

// PortScanProber tests a set of TCP ports with short connect timeouts
// using a bounded worker pool.
type PortScanProber struct {
	Ports       []int
	ConnTimeout time.Duration
	Workers     int
}

func (p *PortScanProber) Kind() Kind { return KindPortScan }

func (p *PortScanProber) Probe(ctx context.Context, target Target) Result {
	ports := p.Ports
	if len(ports) == 0 {
		ports = DefaultPorts
	}
	workers := p.Workers
	if workers <= 0 {
		workers = DefaultPortWorkers
	}

	start := time.Now()

	portChan := make(chan int, len(ports))
	resultChan := make(chan *PortInfo, len(ports))
	var attempted int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for port := range portChan {
				if ctx.Err() != nil {
					return
				}
				atomic.AddInt64(&attempted, 1)
				if info := p.checkPort(ctx, target.Host, port); info != nil {
					resultChan <- info
				}
			}
		}()
	}

	go func() {
		defer close(portChan)
		for _, port := range ports {
			select {
			case portChan <- port:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	open := []PortInfo{}
	for info := range resultChan {
		open = append(open, *info)
	}
	sort.Slice(open, func(i, j int) bool { return open[i].Port < open[j].Port })

	payload := &PortScanPayload{
		OpenPorts:  open,
		Scanned:    int(atomic.LoadInt64(&attempted)),
		DurationMS: float64(time.Since(start)) / float64(time.Millisecond),
	}
	return scanOutcome(payload, ctx.Err())
}

// scanOutcome classifies a finished sweep. A scan with zero open ports
// is still a completed scan; a deadline that cut the scan short keeps
// what was found but downgrades the result to partial success.
func scanOutcome(payload *PortScanPayload, ctxErr error) Result {
	if ctxErr != nil {
		if len(payload.OpenPorts) == 0 {
			return failedResult(KindPortScan, fmt.Errorf("port scan aborted: %w", ctxErr))
		}
		return Result{Status: StatusPartial, PortScan: payload}
	}
	return Result{Status: StatusSuccess, PortScan: payload}
}

// checkPort dials a single port; nil means closed or filtered.
func (p *PortScanProber) checkPort(ctx context.Context, host string, port int) *PortInfo {
	timeout := p.ConnTimeout
	if timeout <= 0 {
		timeout = DefaultPortTimeout
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, fmt.Sprint(port)))
	if err != nil {
		return nil
	}
	defer conn.Close()

	info := &PortInfo{
		Port:    port,
		State:   "open",
		Service: serviceName(port),
	}

	// Best-effort banner grab; many services send nothing unprompted.
	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	banner := make([]byte, 512)
	if n, err := conn.Read(banner); err == nil && n > 0 {
		info.Banner = strings.TrimSpace(string(banner[:n]))
	}

	return info
}

var wellKnownServices = map[int]string{
	21:    "ftp",
	22:    "ssh",
	23:    "telnet",
	25:    "smtp",
	53:    "dns",
	80:    "http",
	110:   "pop3",
	143:   "imap",
	443:   "https",
	445:   "smb",
	3306:  "mysql",
	3389:  "rdp",
	5432:  "postgresql",
	5900:  "vnc",
	6379:  "redis",
	8080:  "http-alt",
	8443:  "https-alt",
	27017: "mongodb",
}

func serviceName(port int) string {
	if service, ok := wellKnownServices[port]; ok {
		return service
	}
	return "unknown"
}

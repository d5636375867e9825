package probe

import (
	"context"
	"fmt"
	"math"
	"net"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// PingPayload carries round-trip latency statistics.
type PingPayload struct {
	PacketsSent int     `json:"packets_sent"`
	PacketsRecv int     `json:"packets_received"`
	LossPct     float64 `json:"packet_loss_pct"`
	MinMS       float64 `json:"min_ms"`
	AvgMS       float64 `json:"avg_ms"`
	MaxMS       float64 `json:"max_ms"`
	StdDevMS    float64 `json:"stddev_ms"`
	Method      string  `json:"method"` // "icmp" or "tcp"
}

// PingProber measures latency with a small fixed number of ICMP echo
// packets. When ICMP sockets are unavailable (unprivileged containers
// without ping_group_range) it falls back to timing TCP connects.
type PingProber struct {
	Count   int
	Timeout time.Duration
}

func (p *PingProber) Kind() Kind { return KindPing }

func (p *PingProber) Probe(ctx context.Context, target Target) Result {
	count := p.Count
	if count <= 0 {
		count = DefaultPingCount
	}

	payload, err := icmpPing(ctx, target.Host, count, p.Timeout)
	if err != nil {
		payload, err = tcpPing(ctx, target, count)
		if err != nil {
			return failedResult(KindPing, err)
		}
	}

	// Total loss is a failure; partial loss still carries usable data.
	if payload.PacketsRecv == 0 {
		return failedResult(KindPing, fmt.Errorf("100%% packet loss (%d packets sent)", payload.PacketsSent))
	}
	res := Result{Status: StatusSuccess, Ping: payload}
	if payload.LossPct > 0 {
		res.Status = StatusPartial
	}
	return res
}

func icmpPing(ctx context.Context, host string, count int, timeout time.Duration) (*PingPayload, error) {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return nil, fmt.Errorf("ping setup failed: %w", err)
	}
	pinger.Count = count
	pinger.Interval = 200 * time.Millisecond
	if timeout > 0 {
		pinger.Timeout = timeout
	}
	pinger.SetPrivileged(false)

	if err := pinger.RunWithContext(ctx); err != nil {
		return nil, fmt.Errorf("icmp ping failed: %w", err)
	}

	stats := pinger.Statistics()
	return &PingPayload{
		PacketsSent: stats.PacketsSent,
		PacketsRecv: stats.PacketsRecv,
		LossPct:     stats.PacketLoss,
		MinMS:       durationMS(stats.MinRtt),
		AvgMS:       durationMS(stats.AvgRtt),
		MaxMS:       durationMS(stats.MaxRtt),
		StdDevMS:    durationMS(stats.StdDevRtt),
		Method:      "icmp",
	}, nil
}

// tcpPing times TCP connection establishment as a latency proxy. The
// target's explicit port is used when present, then 443, then 80.
func tcpPing(ctx context.Context, target Target, count int) (*PingPayload, error) {
	ports := []string{"443", "80"}
	if target.Port != "" {
		ports = []string{target.Port}
	}

	var rtts []time.Duration
	sent := 0
	dialer := &net.Dialer{Timeout: 2 * time.Second}

	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			break
		}
		sent++
		for _, port := range ports {
			start := time.Now()
			conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(target.Host, port))
			if err != nil {
				continue
			}
			rtts = append(rtts, time.Since(start))
			conn.Close()
			break
		}
	}

	if sent == 0 {
		return nil, fmt.Errorf("tcp ping aborted: %w", ctx.Err())
	}

	payload := &PingPayload{
		PacketsSent: sent,
		PacketsRecv: len(rtts),
		Method:      "tcp",
	}
	if sent > 0 {
		payload.LossPct = float64(sent-len(rtts)) / float64(sent) * 100
	}
	payload.MinMS, payload.AvgMS, payload.MaxMS, payload.StdDevMS = latencyStats(rtts)
	return payload, nil
}

// latencyStats computes min/avg/max/stddev in milliseconds.
func latencyStats(rtts []time.Duration) (min, avg, max, stddev float64) {
	if len(rtts) == 0 {
		return 0, 0, 0, 0
	}
	min = durationMS(rtts[0])
	max = min
	var sum float64
	for _, rtt := range rtts {
		ms := durationMS(rtt)
		sum += ms
		if ms < min {
			min = ms
		}
		if ms > max {
			max = ms
		}
	}
	avg = sum / float64(len(rtts))

	var variance float64
	for _, rtt := range rtts {
		d := durationMS(rtt) - avg
		variance += d * d
	}
	stddev = math.Sqrt(variance / float64(len(rtts)))
	return min, avg, max, stddev
}

func durationMS(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

package probe

import (
	"context"
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// PacketLossPayload summarizes a larger ping sample aimed at loss
// measurement rather than latency.
type PacketLossPayload struct {
	Sent     int     `json:"sent"`
	Received int     `json:"received"`
	Lost     int     `json:"lost"`
	LossPct  float64 `json:"loss_pct"`
}

// PacketLossProber sends a larger echo sample (default 50 packets) and
// reports the loss fraction.
type PacketLossProber struct {
	Count   int
	Timeout time.Duration
}

func (p *PacketLossProber) Kind() Kind { return KindPacketLoss }

func (p *PacketLossProber) Probe(ctx context.Context, target Target) Result {
	count := p.Count
	if count <= 0 {
		count = DefaultLossCount
	}

	pinger, err := probing.NewPinger(target.Host)
	if err != nil {
		return failedResult(KindPacketLoss, fmt.Errorf("packet loss setup failed: %w", err))
	}
	pinger.Count = count
	pinger.Interval = 100 * time.Millisecond
	if p.Timeout > 0 {
		pinger.Timeout = p.Timeout
	}
	pinger.SetPrivileged(false)

	if err := pinger.RunWithContext(ctx); err != nil {
		return failedResult(KindPacketLoss, fmt.Errorf("packet loss sampling failed: %w", err))
	}

	stats := pinger.Statistics()
	payload := &PacketLossPayload{
		Sent:     stats.PacketsSent,
		Received: stats.PacketsRecv,
		Lost:     stats.PacketsSent - stats.PacketsRecv,
		LossPct:  stats.PacketLoss,
	}

	if payload.Received == 0 {
		return failedResult(KindPacketLoss, fmt.Errorf("100%% packet loss (%d packets sent)", payload.Sent))
	}
	res := Result{Status: StatusSuccess, PacketLoss: payload}
	if payload.Lost > 0 {
		res.Status = StatusPartial
	}
	return res
}

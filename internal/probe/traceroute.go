package probe

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// Hop is one step along the traced route.
type Hop struct {
	Number  int     `json:"hop"`
	Address string  `json:"address,omitempty"`
	Name    string  `json:"name,omitempty"`
	RTTMS   float64 `json:"rtt_ms,omitempty"`
	Silent  bool    `json:"silent,omitempty"`
}

// TraceroutePayload is the ordered hop list of a TTL-stepped trace.
type TraceroutePayload struct {
	Destination string `json:"destination"`
	Hops        []Hop  `json:"hops"`
	Reached     bool   `json:"reached"`
}

// TracerouteProber walks the path to the target by sending ICMP echo
// requests with incrementing TTLs over an unprivileged datagram socket,
// reading the Time Exceeded responses from intermediate routers.
type TracerouteProber struct {
	MaxHops       int
	MaxSilentHops int           // consecutive silent hops before giving up
	HopTimeout    time.Duration // read deadline per hop; default 2s
}

func (t *TracerouteProber) Kind() Kind { return KindTraceroute }

func (t *TracerouteProber) Probe(ctx context.Context, target Target) Result {
	maxHops := t.MaxHops
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	maxSilent := t.MaxSilentHops
	if maxSilent <= 0 {
		maxSilent = DefaultMaxSilentHops
	}
	hopTimeout := t.HopTimeout
	if hopTimeout <= 0 {
		hopTimeout = 2 * time.Second
	}

	dst, err := resolveIPv4(ctx, target.Host)
	if err != nil {
		return failedResult(KindTraceroute, fmt.Errorf("cannot resolve %s: %w", target.Host, err))
	}

	conn, err := icmp.ListenPacket("udp4", "0.0.0.0")
	if err != nil {
		return failedResult(KindTraceroute, fmt.Errorf("icmp socket unavailable: %w", err))
	}
	defer conn.Close()

	pktConn := conn.IPv4PacketConn()
	id := os.Getpid() & 0xffff

	payload := &TraceroutePayload{Destination: dst.String(), Hops: []Hop{}}
	silent := 0

	for ttl := 1; ttl <= maxHops; ttl++ {
		if ctx.Err() != nil {
			break
		}
		if err := pktConn.SetTTL(ttl); err != nil {
			return failedResult(KindTraceroute, fmt.Errorf("set ttl %d: %w", ttl, err))
		}

		hop, reached := t.probeHop(conn, dst, id, ttl, hopTimeout)
		payload.Hops = append(payload.Hops, hop)

		if hop.Silent {
			silent++
			if silent >= maxSilent {
				break
			}
			continue
		}
		silent = 0

		if reached {
			payload.Reached = true
			break
		}
	}

	if len(payload.Hops) == 0 {
		return failedResult(KindTraceroute, fmt.Errorf("no hops responded before %s", dst))
	}
	res := Result{Status: StatusSuccess, Traceroute: payload}
	if !payload.Reached {
		res.Status = StatusPartial
	}
	return res
}

// probeHop sends one echo request at the given TTL and waits for either
// a Time Exceeded from a router or an Echo Reply from the target.
func (t *TracerouteProber) probeHop(conn *icmp.PacketConn, dst net.IP, id, ttl int, timeout time.Duration) (Hop, bool) {
	hop := Hop{Number: ttl}

	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{ID: id, Seq: ttl, Data: []byte("netscope-trace")},
	}
	wire, err := msg.Marshal(nil)
	if err != nil {
		hop.Silent = true
		return hop, false
	}

	start := time.Now()
	if _, err := conn.WriteTo(wire, &net.UDPAddr{IP: dst}); err != nil {
		hop.Silent = true
		return hop, false
	}
	_ = conn.SetReadDeadline(time.Now().Add(timeout))

	buf := make([]byte, 1500)
	n, peer, err := conn.ReadFrom(buf)
	if err != nil {
		hop.Silent = true
		return hop, false
	}
	rtt := time.Since(start)

	parsed, err := icmp.ParseMessage(ipv4.ICMPTypeEcho.Protocol(), buf[:n])
	if err != nil {
		hop.Silent = true
		return hop, false
	}

	hop.Address = peerIP(peer)
	hop.RTTMS = durationMS(rtt)
	hop.Name = reverseName(hop.Address)

	switch parsed.Type {
	case ipv4.ICMPTypeEchoReply:
		return hop, true
	case ipv4.ICMPTypeTimeExceeded:
		return hop, false
	case ipv4.ICMPTypeDestinationUnreachable:
		// Treat as terminal: the path ends here.
		return hop, true
	default:
		return hop, false
	}
}

func resolveIPv4(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
		return nil, fmt.Errorf("%s is not an IPv4 address", host)
	}
	addrs, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no IPv4 address for %s", host)
	}
	return addrs[0].To4(), nil
}

func peerIP(addr net.Addr) string {
	switch a := addr.(type) {
	case *net.UDPAddr:
		return a.IP.String()
	case *net.IPAddr:
		return a.IP.String()
	default:
		return addr.String()
	}
}

// reverseName does a best-effort PTR lookup with a short deadline.
func reverseName(addr string) string {
	if addr == "" {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	names, err := net.DefaultResolver.LookupAddr(ctx, addr)
	if err != nil || len(names) == 0 {
		return ""
	}
	return names[0]
}

package probe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// DNSPayload maps record type ("A", "MX", ...) to the records found.
// Types with no records are omitted entirely; an absent type is not an
// error.
type DNSPayload struct {
	Records    map[string][]string `json:"records"`
	Nameserver string              `json:"nameserver"`
}

// DNSProber resolves the common record types for a domain.
type DNSProber struct {
	Timeout     time.Duration
	Nameservers []string // "ip:port"; empty means the system resolver
}

func (d *DNSProber) Kind() Kind { return KindDNS }

var dnsQueryTypes = []struct {
	name string
	code uint16
}{
	{"A", dns.TypeA},
	{"AAAA", dns.TypeAAAA},
	{"CNAME", dns.TypeCNAME},
	{"MX", dns.TypeMX},
	{"TXT", dns.TypeTXT},
	{"NS", dns.TypeNS},
}

func (d *DNSProber) Probe(ctx context.Context, target Target) Result {
	server, err := d.server()
	if err != nil {
		return failedResult(KindDNS, err)
	}

	client := &dns.Client{Timeout: d.Timeout}
	payload := &DNSPayload{
		Records:    make(map[string][]string),
		Nameserver: server,
	}

	var lastErr error
	nxdomain := 0
	fqdn := dns.Fqdn(target.Host)

	for _, qt := range dnsQueryTypes {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		msg := new(dns.Msg)
		msg.SetQuestion(fqdn, qt.code)
		msg.RecursionDesired = true

		resp, _, err := client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.Rcode == dns.RcodeNameError {
			nxdomain++
			continue
		}
		values := recordValues(resp.Answer, qt.code)
		if len(values) > 0 {
			payload.Records[qt.name] = values
		}
	}

	if len(payload.Records) == 0 {
		switch {
		case nxdomain > 0:
			return failedResult(KindDNS, fmt.Errorf("NXDOMAIN: %s does not exist", target.Host))
		case lastErr != nil:
			return failedResult(KindDNS, fmt.Errorf("dns lookup failed: %w", lastErr))
		default:
			return failedResult(KindDNS, fmt.Errorf("no dns records found for %s", target.Host))
		}
	}

	return Result{Status: StatusSuccess, DNS: payload}
}

// server picks the resolver address. Custom nameservers win; otherwise
// the first system resolver from resolv.conf is used.
func (d *DNSProber) server() (string, error) {
	if len(d.Nameservers) > 0 {
		return withDNSPort(d.Nameservers[0]), nil
	}
	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(conf.Servers) == 0 {
		// No readable resolver config; fall back to a public resolver
		// rather than failing the whole probe.
		return "8.8.8.8:53", nil
	}
	return conf.Servers[0] + ":" + conf.Port, nil
}

func withDNSPort(server string) string {
	if strings.Contains(server, ":") {
		return server
	}
	return server + ":53"
}

// recordValues renders answer RRs of the queried type. CNAME answers
// are only reported for explicit CNAME queries so that A lookups of
// aliased names don't duplicate the alias chain.
func recordValues(answers []dns.RR, qtype uint16) []string {
	var out []string
	for _, rr := range answers {
		switch v := rr.(type) {
		case *dns.A:
			if qtype == dns.TypeA {
				out = append(out, v.A.String())
			}
		case *dns.AAAA:
			if qtype == dns.TypeAAAA {
				out = append(out, v.AAAA.String())
			}
		case *dns.CNAME:
			if qtype == dns.TypeCNAME {
				out = append(out, strings.TrimSuffix(v.Target, "."))
			}
		case *dns.MX:
			if qtype == dns.TypeMX {
				out = append(out, fmt.Sprintf("%d %s", v.Preference, strings.TrimSuffix(v.Mx, ".")))
			}
		case *dns.TXT:
			if qtype == dns.TypeTXT {
				out = append(out, strings.Join(v.Txt, ""))
			}
		case *dns.NS:
			if qtype == dns.TypeNS {
				out = append(out, strings.TrimSuffix(v.Ns, "."))
			}
		}
	}
	return out
}

package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
)

// WhoisPayload carries the registry fields most analyses care about.
type WhoisPayload struct {
	Registrar      string   `json:"registrar,omitempty"`
	WhoisServer    string   `json:"whois_server,omitempty"`
	CreatedDate    string   `json:"created_date,omitempty"`
	UpdatedDate    string   `json:"updated_date,omitempty"`
	ExpirationDate string   `json:"expiration_date,omitempty"`
	NameServers    []string `json:"name_servers,omitempty"`
	DomainStatus   []string `json:"domain_status,omitempty"`
}

// WhoisProber queries registry data for a domain. IP targets are
// filtered out by the scheduler before this prober runs.
type WhoisProber struct {
	Timeout time.Duration

	// lookup is overridable in tests; nil uses the whois client.
	lookup func(ctx context.Context, domain string) (string, error)
}

func (w *WhoisProber) Kind() Kind { return KindWhois }

func (w *WhoisProber) Probe(ctx context.Context, target Target) Result {
	lookup := w.lookup
	if lookup == nil {
		client := whois.NewClient()
		if w.Timeout > 0 {
			client.SetTimeout(w.Timeout)
		}
		lookup = func(_ context.Context, domain string) (string, error) {
			return client.Whois(domain)
		}
	}

	raw, err := lookup(ctx, target.Host)
	if err != nil {
		return failedResult(KindWhois, fmt.Errorf("whois query failed: %w", err))
	}

	payload, err := parseWhois(raw)
	if err != nil {
		return failedResult(KindWhois, err)
	}
	return Result{Status: StatusSuccess, Whois: payload}
}

// parseWhois extracts structured fields from a raw registry response.
func parseWhois(raw string) (*WhoisPayload, error) {
	info, err := whoisparser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("whois response unparseable: %w", err)
	}

	payload := &WhoisPayload{}
	if info.Registrar != nil {
		payload.Registrar = info.Registrar.Name
	}
	if info.Domain != nil {
		payload.WhoisServer = info.Domain.WhoisServer
		payload.CreatedDate = info.Domain.CreatedDate
		payload.UpdatedDate = info.Domain.UpdatedDate
		payload.ExpirationDate = info.Domain.ExpirationDate
		payload.NameServers = info.Domain.NameServers
		payload.DomainStatus = info.Domain.Status
	}
	return payload, nil
}

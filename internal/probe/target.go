package probe

import (
	"net"
	"net/url"
	"regexp"
	"strings"
)

// Target is a validated probe destination. Probers receive the bare
// host; the original input is kept for report labelling.
type Target struct {
	Raw  string // original user input
	Host string // bare hostname or IP, no scheme/port/path
	Port string // explicit port, if the input carried one
	IsIP bool   // Host parses as a literal IP address
}

// hostnameRE accepts dot-separated labels of letters, digits and
// hyphens. Deliberately loose about TLD length; single-label hosts
// ("localhost", LAN names) are allowed.
var hostnameRE = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,62})(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,62}))*$`)

// ParseTarget normalizes and validates a target string. Accepted forms:
//
//	example.com
//	https://example.com:8443/path
//	192.0.2.10
//	example.com:8080
//
// A syntactically implausible target yields a ConfigurationError so the
// scheduler can fail fast before dispatching any probe.
func ParseTarget(raw string) (Target, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Target{}, &ConfigurationError{Reason: ErrEmptyTarget.Error()}
	}

	host := trimmed
	port := ""

	if strings.Contains(host, "://") {
		parsed, err := url.Parse(host)
		if err != nil || parsed.Hostname() == "" {
			return Target{}, &ConfigurationError{Reason: ErrInvalidTarget.Error() + ": " + raw}
		}
		host = parsed.Hostname()
		port = parsed.Port()
	} else {
		// Strip any path component, then split an optional port.
		host = strings.Split(host, "/")[0]
		if h, p, err := net.SplitHostPort(host); err == nil {
			host, port = h, p
		}
	}

	if ip := net.ParseIP(host); ip != nil {
		return Target{Raw: trimmed, Host: host, Port: port, IsIP: true}, nil
	}

	if len(host) > 253 || !hostnameRE.MatchString(host) {
		return Target{}, &ConfigurationError{Reason: ErrInvalidTarget.Error() + ": " + raw}
	}

	return Target{Raw: trimmed, Host: host, Port: port}, nil
}

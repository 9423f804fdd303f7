package tracker

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	PolicySubstring = "substring"
	PolicyHost      = "host"
)

// MatchFunc reports whether a tracker URL (or summary string) belongs to domain.
type MatchFunc func(trackerURL string, domain string) bool

// DomainMatches is a plain containment test of domain inside trackerURL.
func DomainMatches(trackerURL string, domain string) bool {
	if domain == "" || trackerURL == "" {
		return false
	}

	return strings.Contains(trackerURL, domain)
}

// HostMatches parses trackerURL and compares its host against domain, accepting
// an exact host or any subdomain of it. Hosts without a scheme (such as the
// bare host Deluge reports) are compared directly.
func HostMatches(trackerURL string, domain string) bool {
	if domain == "" || trackerURL == "" {
		return false
	}

	host := trackerURL
	if strings.Contains(trackerURL, "://") {
		u, err := url.Parse(trackerURL)
		if err != nil {
			return false
		}
		host = u.Hostname()
	}

	host = strings.ToLower(host)
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func MatchPolicy(name string) (MatchFunc, error) {
	switch strings.ToLower(name) {
	case "", PolicySubstring:
		return DomainMatches, nil
	case PolicyHost:
		return HostMatches, nil
	}

	return nil, fmt.Errorf("unsupported match policy: %q", name)
}

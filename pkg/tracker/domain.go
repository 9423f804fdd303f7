package tracker

import (
	"net"
	"net/url"
	"strings"

	domainutil "github.com/bobesa/go-domain-util/domainutil"
)

// ParseDomain returns the registered domain of a tracker announce URL, e.g.
// "http://announce.tracker.com:8080/announce" -> "tracker.com".
// IP hosts are returned as-is and unparsable input yields "".
func ParseDomain(trackerURL string) string {
	if trackerURL == "" {
		return ""
	}

	u, err := url.Parse(trackerURL)
	if err != nil {
		return ""
	}

	host := u.Hostname()
	if host == "" {
		return ""
	}

	if net.ParseIP(host) != nil {
		return host
	}

	if d := domainutil.Domain(host); d != "" {
		return d
	}

	return strings.ToLower(host)
}

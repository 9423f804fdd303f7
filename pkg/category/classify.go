package category

import (
	"fmt"
	"strings"

	"github.com/luckylittle/qbrecon/pkg/config"
	"github.com/luckylittle/qbrecon/pkg/tracker"
)

// Source selects which tracker information the classifier is fed.
type Source string

const (
	// SourceTrackers uses the torrent's full tracker list, restricted to http(s) announce urls.
	SourceTrackers Source = "trackers"
	// SourceSummary uses the single tracker string carried by the snapshot.
	SourceSummary Source = "summary"
)

func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(s)) {
	case "", SourceTrackers:
		return SourceTrackers, nil
	case SourceSummary:
		return SourceSummary, nil
	}

	return "", fmt.Errorf("unsupported classification source: %q", s)
}

// Classify returns the first category in rules with a domain matching any of
// trackerURLs. Torrents that already have a category are never classified.
func Classify(t *config.Torrent, trackerURLs []string, rules RuleSet, match tracker.MatchFunc) (string, bool) {
	if t == nil || !t.IsUncategorized() {
		return "", false
	}

	if match == nil {
		match = tracker.DomainMatches
	}

	for _, rule := range rules {
		for _, domain := range rule.Domains {
			for _, u := range trackerURLs {
				if match(u, domain) {
					return rule.Name, true
				}
			}
		}
	}

	return "", false
}

// EligibleTrackers keeps only http(s) announce urls, dropping pseudo trackers
// such as "** [DHT] **" and udp endpoints.
func EligibleTrackers(urls []string) []string {
	var out []string
	for _, u := range urls {
		lu := strings.ToLower(strings.TrimSpace(u))
		if strings.HasPrefix(lu, "http://") || strings.HasPrefix(lu, "https://") {
			out = append(out, u)
		}
	}
	return out
}

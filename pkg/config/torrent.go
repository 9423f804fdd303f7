package config

import (
	"strings"

	"github.com/luckylittle/qbrecon/pkg/evaluate"
	"github.com/luckylittle/qbrecon/pkg/regex"
)

type Torrent struct {
	// torrent
	Hash       string   `json:"Hash"`
	Name       string   `json:"Name"`
	Category   string   `json:"Category"`
	SavePath   string   `json:"SavePath"`
	State      string   `json:"State"`
	Tags       []string `json:"Tags"`
	TotalBytes int64    `json:"TotalBytes"`

	// tracker
	TrackerSummary string `json:"TrackerSummary"`
	TrackerName    string `json:"TrackerName"`

	regexPattern *regex.Pattern
}

type Tracker struct {
	URL     string `json:"URL"`
	Status  int    `json:"Status"`
	Message string `json:"Message"`
}

func (t *Torrent) IsUncategorized() bool {
	return strings.TrimSpace(t.Category) == ""
}

func (t *Torrent) HasAllTags(tags ...string) bool {
	for _, v := range tags {
		if !evaluate.StringSliceContains(t.Tags, v, true) {
			return false
		}
	}

	return true
}

func (t *Torrent) HasAnyTag(tags ...string) bool {
	for _, v := range tags {
		if evaluate.StringSliceContains(t.Tags, v, true) {
			return true
		}
	}

	return false
}

// RegexMatch delegates to the regex checker
func (t *Torrent) RegexMatch(pattern string) bool {
	// Compile pattern if needed
	if t.regexPattern == nil || t.regexPattern.Expression.String() != pattern {
		compiled, err := regex.Compile(pattern)
		if err != nil {
			return false
		}
		t.regexPattern = compiled
	}

	match, err := regex.Check(t.Name, t.regexPattern)
	if err != nil {
		return false
	}

	return match
}

// RegexMatchAny checks if the torrent name matches any of the comma separated patterns
func (t *Torrent) RegexMatchAny(patternsStr string) bool {
	var compiledPatterns []*regex.Pattern
	for _, p := range strings.Split(patternsStr, ",") {
		compiled, err := regex.Compile(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		compiledPatterns = append(compiledPatterns, compiled)
	}

	match, err := regex.CheckAny(t.Name, compiledPatterns)
	if err != nil {
		return false
	}
	return match
}

// RegexMatchAll checks if the torrent name matches all of the comma separated patterns
func (t *Torrent) RegexMatchAll(patternsStr string) bool {
	var compiledPatterns []*regex.Pattern
	for _, p := range strings.Split(patternsStr, ",") {
		compiled, err := regex.Compile(strings.TrimSpace(p))
		if err != nil {
			return false
		}
		compiledPatterns = append(compiledPatterns, compiled)
	}

	match, err := regex.CheckAll(t.Name, compiledPatterns)
	if err != nil {
		return false
	}
	return match
}

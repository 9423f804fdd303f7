package regex

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
)

// bounds backtracking on user supplied patterns
const matchTimeout = 500 * time.Millisecond

type Pattern struct {
	Expression *regexp2.Regexp
}

func Compile(pattern string) (*Pattern, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = matchTimeout

	return &Pattern{Expression: re}, nil
}

func ValidatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if _, err := Compile(pattern); err != nil {
			return fmt.Errorf("%q: %w", pattern, err)
		}
	}
	return nil
}

func Check(text string, pattern *Pattern) (bool, error) {
	return pattern.Expression.MatchString(text)
}

// CheckAny returns true if any pattern matches
func CheckAny(text string, patterns []*Pattern) (bool, error) {
	for _, pattern := range patterns {
		match, err := Check(text, pattern)
		if err != nil {
			return false, err
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

// CheckAll returns true if all patterns match
func CheckAll(text string, patterns []*Pattern) (bool, error) {
	for _, pattern := range patterns {
		match, err := Check(text, pattern)
		if err != nil {
			return false, err
		}
		if !match {
			return false, nil
		}
	}
	return true, nil
}

package expression

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/expr-lang/expr"

	"github.com/luckylittle/qbrecon/pkg/config"
	"github.com/luckylittle/qbrecon/pkg/regex"
)

var (
	// Matches: RegexMatch("pattern"), RegexMatchAny("pattern1, pattern2"), RegexMatchAll("pattern1, pattern2")
	regexFuncPattern = regexp2.MustCompile(`RegexMatch(?:Any|All)?\("([^"\\]*(?:\\.[^"\\]*)*)"\)`, regexp2.None)
)

type evalContext struct {
	*config.Torrent
}

func (e *evalContext) IsUncategorized() bool {
	if e.Torrent == nil {
		return false
	}
	return e.Torrent.IsUncategorized()
}

func (e *evalContext) HasAllTags(tags ...string) bool {
	if e.Torrent == nil {
		return false
	}
	return e.Torrent.HasAllTags(tags...)
}

func (e *evalContext) HasAnyTag(tags ...string) bool {
	if e.Torrent == nil {
		return false
	}
	return e.Torrent.HasAnyTag(tags...)
}

func (e *evalContext) RegexMatch(pattern string) bool {
	if e.Torrent == nil {
		return false
	}
	return e.Torrent.RegexMatch(pattern)
}

func (e *evalContext) RegexMatchAny(patternsStr string) bool {
	if e.Torrent == nil {
		return false
	}
	return e.Torrent.RegexMatchAny(patternsStr)
}

func (e *evalContext) RegexMatchAll(patternsStr string) bool {
	if e.Torrent == nil {
		return false
	}
	return e.Torrent.RegexMatchAll(patternsStr)
}

// Compile compiles the filter's ignore expressions. A nil filter compiles to no expressions.
func Compile(filter *config.FilterConfiguration) (*Expressions, error) {
	exprEnv := &evalContext{}
	exp := new(Expressions)

	if filter == nil {
		return exp, nil
	}

	// validate all regex patterns in expressions
	patterns, err := patternsFromExpressions(filter.Ignore)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}

	if err := regex.ValidatePatterns(patterns); err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}

	// compile ignores
	for _, ignoreExpr := range filter.Ignore {
		program, err := expr.Compile(ignoreExpr, expr.Env(exprEnv), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile ignore expression: %q: %w", ignoreExpr, err)
		}

		exp.Ignores = append(exp.Ignores, CompiledExpression{Program: program, Text: ignoreExpr})
	}

	return exp, nil
}

// patternsFromExpressions extracts every regex pattern passed to a RegexMatch function
func patternsFromExpressions(expressions []string) ([]string, error) {
	var patterns []string

	for _, e := range expressions {
		match, err := regexFuncPattern.FindStringMatch(e)
		for match != nil && err == nil {
			// group 1 contains the pattern(s), comma separated for RegexMatchAny/All
			for _, p := range strings.Split(match.GroupByNumber(1).String(), ",") {
				if p = strings.TrimSpace(p); p != "" {
					patterns = append(patterns, p)
				}
			}

			match, err = regexFuncPattern.FindNextMatch(match)
		}

		if err != nil {
			return nil, fmt.Errorf("invalid regex function: %w", err)
		}
	}

	return patterns, nil
}

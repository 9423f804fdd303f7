package expression

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/luckylittle/qbrecon/pkg/config"
)

// CheckTorrentSingleMatch reports whether any of the expressions match t.
func CheckTorrentSingleMatch(t *config.Torrent, expressions []CompiledExpression) (bool, error) {
	match, _, err := CheckTorrentSingleMatchWithReason(t, expressions)
	return match, err
}

// CheckTorrentSingleMatchWithReason also returns the text of the matching expression.
func CheckTorrentSingleMatchWithReason(t *config.Torrent, expressions []CompiledExpression) (bool, string, error) {
	env := &evalContext{Torrent: t}

	for _, expression := range expressions {
		result, err := expr.Run(expression.Program, env)
		if err != nil {
			return false, "", fmt.Errorf("check expression: %q: %w", expression.Text, err)
		}

		expResult, ok := result.(bool)
		if !ok {
			return false, "", fmt.Errorf("type assert expression result: %q: got %T", expression.Text, result)
		}

		if expResult {
			return true, expression.Text, nil
		}
	}

	return false, "", nil
}

// Ignored is a convenience for callers holding an optional Expressions.
func (e *Expressions) Ignored(t *config.Torrent) (bool, string, error) {
	if e == nil || len(e.Ignores) == 0 {
		return false, "", nil
	}

	return CheckTorrentSingleMatchWithReason(t, e.Ignores)
}

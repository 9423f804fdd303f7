package stringutils

import "strings"

// LeftJust pads text on the right with filler until it is at least length long.
func LeftJust(text string, filler string, length int) string {
	textLen := len(text)
	if textLen >= length || filler == "" {
		return text
	}

	return text + strings.Repeat(filler, length-textLen)
}

package compose

import (
	"strings"
	"unicode/utf8"
)

// HintPrefix precedes the shortest code in a hint.
const HintPrefix = "字根："

// shortestCodeHint returns the hint to show after committing value, or ""
// when there is nothing to teach.
func (c *Composer) shortestCodeHint(value, typedCode string, reverseCommit bool) string {
	if !c.showHint || utf8.RuneCountInString(value) != 1 {
		return ""
	}
	shortest, ok := c.dict.CodeIndex().ShortestCodeForValue(value)
	if !ok {
		return ""
	}
	if !reverseCommit {
		typed := utf8.RuneCountInString(typedCode)
		if typed <= 2 || utf8.RuneCountInString(shortest) >= typed {
			return ""
		}
	}
	return HintPrefix + strings.ToUpper(shortest)
}

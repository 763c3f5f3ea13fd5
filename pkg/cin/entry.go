/*
Package cin reads .cin code tables.

A .cin table is UTF-8 text with one mapping per line:

	# comment
	a	對
	ab	喜
	'	、

The first field is the code typed by the user, the rest of the line is the
value it resolves to. Blank lines and lines starting with '#' are ignored.

Parsed entries are returned in canonical order: shorter codes first, then
lexicographically earlier codes, then file order. Candidate ranking
depends on this order being byte-identical across loads.
*/
package cin

import "unicode/utf8"

// Entry is one accepted line of a code table.
type Entry struct {
	Code  string
	Value string
	// SourceOrder is the 0-based position among accepted lines.
	SourceOrder int
}

// CodeLength returns the number of characters in Code.
func (e Entry) CodeLength() int {
	return utf8.RuneCountInString(e.Code)
}

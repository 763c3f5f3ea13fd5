package cin

import (
	"bufio"
	"bytes"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/encoding"
	textunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrMalformed marks a table that is not valid UTF-8.
var ErrMalformed = errors.New("cin: malformed table encoding")

// maxLineSize bounds a single table line.
const maxLineSize = 1 << 20

// Parse reads a whole table and returns its entries in canonical order.
// A read or decode failure anywhere in the stream fails the parse and no
// entries are returned.
func Parse(r io.Reader) ([]Entry, error) {
	// Validate before stripping the BOM so every byte is checked.
	decoded := transform.NewReader(r, transform.Chain(
		encoding.UTF8Validator,
		textunicode.UTF8BOM.NewDecoder(),
	))

	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(scanLines)

	entries := make([]Entry, 0, 32_000)
	lineNum := 0
	sourceOrder := 0
	for scanner.Scan() {
		lineNum++
		entry, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		entry.SourceOrder = sourceOrder
		sourceOrder++
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, encoding.ErrInvalidUTF8) {
			return nil, errors.Wrapf(errors.Mark(err, ErrMalformed), "cin: near line %d", lineNum+1)
		}
		return nil, errors.Wrapf(err, "cin: reading line %d", lineNum+1)
	}

	Sort(entries)
	return entries, nil
}

// parseLine splits one line at its first space or tab.
func parseLine(line string) (Entry, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Entry{}, false
	}
	split := strings.IndexAny(trimmed, " \t")
	if split <= 0 {
		return Entry{}, false
	}
	value := strings.TrimLeftFunc(trimmed[split:], unicode.IsSpace)
	if value == "" {
		return Entry{}, false
	}
	return Entry{Code: trimmed[:split], Value: value}, true
}

// scanLines is bufio.ScanLines that also ends a line at a lone '\r'.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		// a '\n' may follow in the next read
		if !atEOF {
			return 0, nil, nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Sort orders entries by code length, then code, then source order.
// The sort is stable, so callers may rely on it for already-numbered input.
func Sort(entries []Entry) {
	slices.SortStableFunc(entries, Compare)
}

// Compare is the canonical entry ordering.
func Compare(a, b Entry) int {
	if la, lb := a.CodeLength(), b.CodeLength(); la != lb {
		return la - lb
	}
	if c := strings.Compare(a.Code, b.Code); c != 0 {
		return c
	}
	return a.SourceOrder - b.SourceOrder
}

// ParseFile opens and parses the table at path.
func ParseFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cin: open %s", path)
	}
	defer file.Close()

	entries, err := Parse(file)
	if err != nil {
		return nil, errors.Wrapf(err, "cin: parse %s", path)
	}
	return entries, nil
}

// ParseFS parses the named table from fsys.
func ParseFS(fsys fs.FS, name string) ([]Entry, error) {
	file, err := fsys.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "cin: open %s", name)
	}
	defer file.Close()

	entries, err := Parse(file)
	if err != nil {
		return nil, errors.Wrapf(err, "cin: parse %s", name)
	}
	return entries, nil
}

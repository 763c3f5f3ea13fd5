package cli

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/osku/freeshiamy/pkg/compose"
)

// ParseKeys turns one line of CLI input into events. Plain characters are
// typed as keys; special keys are written in angle brackets:
//
//	<sp> <ret> <bs> <bs+> (held repeat) <up> (release backspace)
//	<esc> (cancel) <raw> <reset> <sel:N>
//	<S-x> (shifted x) <lit:x> (symbol layout key) <txt:text>
//	<pw:x> (x typed in a password field)
//
// A '<' that does not start a known key is typed as is.
func ParseKeys(line string) ([]compose.Event, error) {
	var events []compose.Event
	for i := 0; i < len(line); {
		if line[i] == '<' {
			if end := strings.IndexByte(line[i:], '>'); end > 1 {
				ev, ok, err := parseSpecial(line[i+1 : i+end])
				if err != nil {
					return nil, err
				}
				if ok {
					events = append(events, ev)
					i += end + 1
					continue
				}
			}
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		events = append(events, compose.Event{Kind: compose.KindChar, Rune: r})
		i += size
	}
	return events, nil
}

func parseSpecial(name string) (compose.Event, bool, error) {
	switch name {
	case "sp":
		return compose.Event{Kind: compose.KindSpace}, true, nil
	case "ret":
		return compose.Event{Kind: compose.KindEnter}, true, nil
	case "bs":
		return compose.Event{Kind: compose.KindBackspace}, true, nil
	case "bs+":
		return compose.Event{Kind: compose.KindBackspace, Repeat: true}, true, nil
	case "up":
		return compose.Event{Kind: compose.KindBackspaceRelease}, true, nil
	case "esc":
		return compose.Event{Kind: compose.KindCancel}, true, nil
	case "raw":
		return compose.Event{Kind: compose.KindSelectRaw}, true, nil
	case "reset":
		return compose.Event{Kind: compose.KindReset}, true, nil
	}

	key, arg, found := strings.Cut(name, ":")
	if !found {
		key, arg, found = strings.Cut(name, "-")
		if !found || key != "S" {
			return compose.Event{}, false, nil
		}
	}

	switch key {
	case "sel":
		index, err := strconv.Atoi(arg)
		if err != nil {
			return compose.Event{}, false, errors.Wrapf(err, "bad selection %q", arg)
		}
		return compose.Event{Kind: compose.KindSelect, Index: index}, true, nil
	case "txt":
		return compose.Event{Kind: compose.KindText, Text: arg}, true, nil
	case "S", "lit", "pw":
		r, size := utf8.DecodeRuneInString(arg)
		if size == 0 || size != len(arg) {
			return compose.Event{}, false, errors.Newf("<%s> needs a single character", name)
		}
		return compose.Event{
			Kind:      compose.KindChar,
			Rune:      r,
			Shifted:   key == "S",
			Literal:   key == "lit",
			Sensitive: key == "pw",
		}, true, nil
	}
	return compose.Event{}, false, nil
}

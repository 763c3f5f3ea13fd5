/*
Package compose is the input composition state machine.

A Composer owns the typed code buffer of one input session. Every event is
handled to completion before the next one: the buffer is updated, candidates
are looked up in the code index and editor operations are issued. The
presentation layer reads the result through View.

Reverse lookup lets the user find a character by the pronunciation of
another one. Typing the marker ' followed by a code (for example 'g) lists
the characters for that code; selecting one replaces the candidates with
its homophones from the spelling table:

	NONE --'x--> ENTERING --select--> ACTIVE --select--> commit, NONE
	                ^                    |
	                +-----backspace------+

A Composer is not safe for concurrent use.
*/
package compose

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/osku/freeshiamy/pkg/cin"
	"github.com/osku/freeshiamy/pkg/spell"
	"github.com/osku/freeshiamy/pkg/suggest"
)

// ReverseLookupMarker starts a reverse lookup when followed by a letter.
const ReverseLookupMarker = '\''

// characters above the basic plane arrive as surrogate pairs from key
// layouts and are never codes
const maxBMP = 0xFFFF

// ReverseLookupState is the reverse lookup sub-state.
type ReverseLookupState int

const (
	StateNone ReverseLookupState = iota
	// StateEntering: the buffer is marker + code, candidates are base
	// characters.
	StateEntering
	// StateActive: candidates are homophones of the chosen base character.
	StateActive
)

func (s ReverseLookupState) String() string {
	switch s {
	case StateEntering:
		return "ENTERING"
	case StateActive:
		return "ACTIVE"
	default:
		return "NONE"
	}
}

// Provider gives read-only access to the shared indexes. Either index may
// be nil while it is still loading or failed to load.
type Provider interface {
	CodeIndex() *suggest.Index
	SpellIndex() *spell.Index
}

// Composer is the state of one input session.
type Composer struct {
	dict     Provider
	editor   Editor
	showHint bool
	logger   *log.Logger

	buffer     []rune
	candidates []cin.Entry
	exactCount int
	state      ReverseLookupState
	hint       string
	// set while a held backspace started on a non-empty buffer, so that
	// emptying the buffer does not go on to delete editor text
	suppressDelete bool
}

// Option configures a Composer.
type Option func(*Composer)

// WithShortestCodeHint enables or disables the shortest code hint.
func WithShortestCodeHint(enabled bool) Option {
	return func(c *Composer) { c.showHint = enabled }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *log.Logger) Option {
	return func(c *Composer) { c.logger = logger }
}

// New creates a composer reading from dict and committing into editor.
func New(dict Provider, editor Editor, opts ...Option) *Composer {
	c := &Composer{
		dict:     dict,
		editor:   editor,
		showHint: true,
		logger:   log.Default(),
		buffer:   make([]rune, 0, 16),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetShortestCodeHint toggles the hint at runtime.
func (c *Composer) SetShortestCodeHint(enabled bool) {
	c.showHint = enabled
	if !enabled {
		c.hint = ""
	}
}

// Handle dispatches one event.
func (c *Composer) Handle(ev Event) {
	switch ev.Kind {
	case KindChar:
		switch {
		case ev.Rune == '\n':
			c.Enter()
		case ev.Rune == ' ':
			c.Space()
		case ev.Rune >= '0' && ev.Rune <= '9':
			c.Digit(ev)
		default:
			c.Char(ev)
		}
	case KindText:
		c.Text(ev)
	case KindSpace:
		c.Space()
	case KindEnter:
		c.Enter()
	case KindBackspace:
		c.Backspace(ev.Repeat)
	case KindBackspaceRelease:
		c.ReleaseBackspace()
	case KindSelect:
		c.Select(ev.Index)
	case KindSelectRaw:
		c.SelectRaw()
	case KindCancel:
		c.Cancel()
	case KindReset:
		c.Reset()
	}
}

// Char handles a letter or symbol key.
func (c *Composer) Char(ev Event) {
	c.hint = ""
	if c.state == StateActive {
		c.cancelReverseLookup()
	}

	ch := ev.Rune
	if ev.Literal {
		c.editor.CommitText(string(ch))
		return
	}

	if unicode.IsLetter(ch) {
		typed := unicode.ToLower(ch)
		if ev.Shifted {
			typed = unicode.ToUpper(typed)
		}
		if ev.Sensitive {
			c.editor.CommitText(string(typed))
			return
		}
		c.appendRune(typed)
		return
	}

	if IsCodeSymbol(ch) {
		if ev.Sensitive {
			c.editor.CommitText(string(ch))
			return
		}
		c.appendRune(ch)
		return
	}

	// other symbols only join a code already being typed
	if len(c.buffer) > 0 {
		c.appendRune(ch)
	} else {
		c.editor.CommitText(string(ch))
	}
}

// Digit handles '0'..'9'. The digit selects a candidate by index when
// there is something to select, otherwise it is typed.
func (c *Composer) Digit(ev Event) {
	c.hint = ""
	index := int(ev.Rune - '0')

	if c.state == StateActive {
		if index < c.exactCount {
			c.commitCandidateAt(index)
		}
		return
	}

	if ev.Literal {
		c.editor.CommitText(string(ev.Rune))
		return
	}

	if c.isReverseLookupEntering() && c.exactCount > 0 {
		c.triggerReverseLookup(index)
		return
	}

	if len(c.buffer) > 0 && c.exactCount > 0 {
		if index < c.exactCount {
			c.commitCandidateAt(index)
		} else {
			c.logger.Debug("Ignoring digit past exact matches", "digit", index, "exact", c.exactCount)
		}
		return
	}

	if len(c.buffer) > 0 {
		c.appendRune(ev.Rune)
		return
	}
	c.editor.CommitText(string(ev.Rune))
}

// Space commits the first candidate, starts a reverse lookup from it, or
// types a space.
func (c *Composer) Space() {
	c.hint = ""
	if c.state == StateActive {
		c.commitCandidateAt(0)
		return
	}
	if c.isReverseLookupEntering() && c.exactCount > 0 {
		c.triggerReverseLookup(0)
		return
	}
	if len(c.buffer) == 0 {
		c.editor.CommitText(" ")
		return
	}
	if c.exactCount > 0 {
		c.commitCandidateAt(0)
		return
	}
	c.appendRune(' ')
}

// Backspace leaves an active reverse lookup, or deletes the last typed
// character, or passes the delete to the editor. repeat is true for
// auto-repeated presses of a held key.
func (c *Composer) Backspace(repeat bool) {
	c.hint = ""
	if !repeat {
		c.suppressDelete = len(c.buffer) > 0
	}

	if c.state == StateActive {
		c.cancelReverseLookup()
		return
	}
	if len(c.buffer) > 0 {
		c.buffer = c.buffer[:len(c.buffer)-1]
		c.updateCandidates()
		return
	}
	if c.suppressDelete {
		return
	}
	c.editor.DeleteBackward()
}

// ReleaseBackspace ends a held backspace.
func (c *Composer) ReleaseBackspace() {
	c.suppressDelete = false
}

// Enter commits the buffer as typed, or runs the editor action.
func (c *Composer) Enter() {
	c.hint = ""
	if len(c.buffer) > 0 {
		c.commitRaw()
		return
	}
	c.editor.PerformEditorAction()
}

// Select handles a click on candidate index. While entering a reverse
// lookup, clicking an exact match chooses it as the base character.
func (c *Composer) Select(index int) {
	c.hint = ""
	if index < 0 || index >= len(c.candidates) {
		c.logger.Debug("Ignoring selection out of range", "index", index, "candidates", len(c.candidates))
		return
	}
	if c.state != StateActive && c.isReverseLookupEntering() && index < c.exactCount {
		c.triggerReverseLookup(index)
		return
	}
	c.commitValue(c.candidates[index].Value, string(c.buffer), c.state == StateActive)
}

// SelectRaw commits the buffer as typed.
func (c *Composer) SelectRaw() {
	c.hint = ""
	c.commitRaw()
}

// Cancel closes the session, keeping whatever was typed.
func (c *Composer) Cancel() {
	c.hint = ""
	if len(c.buffer) > 0 {
		c.commitRaw()
	}
	c.clearState()
}

// Text handles text inserted as a unit. A single character goes through
// normal key handling; anything longer, or outside the basic plane, is
// committed directly.
func (c *Composer) Text(ev Event) {
	if ev.Text == "" {
		return
	}
	c.hint = ""

	runes := []rune(ev.Text)
	if ev.Literal || len(runes) != 1 || runes[0] > maxBMP {
		if c.state == StateActive {
			c.cancelReverseLookup()
		}
		c.editor.CommitText(ev.Text)
		return
	}

	c.Handle(Event{
		Kind:      KindChar,
		Rune:      runes[0],
		Shifted:   ev.Shifted,
		Sensitive: ev.Sensitive,
	})
}

// Reset drops all state, as on a focus change.
func (c *Composer) Reset() {
	c.clearState()
	c.suppressDelete = false
}

// SelectionMoved drops the buffer when the editor selection leaves the end
// of the composing text.
func (c *Composer) SelectionMoved(start, end, composingEnd int) {
	if len(c.buffer) > 0 && (start != composingEnd || end != composingEnd) {
		c.clearState()
	}
}

// Refresh recomputes candidates, for when the dictionary finished loading
// while a code was being typed.
func (c *Composer) Refresh() {
	if len(c.buffer) > 0 && c.state != StateActive {
		c.updateCandidates()
	}
}

// RawText returns the buffer as typed.
func (c *Composer) RawText() string {
	return string(c.buffer)
}

// ExactCount returns the number of leading exact candidates.
func (c *Composer) ExactCount() int {
	return c.exactCount
}

// State returns the reverse lookup state.
func (c *Composer) State() ReverseLookupState {
	return c.state
}

// Candidates returns the current candidate entries. The slice must not be
// modified.
func (c *Composer) Candidates() []cin.Entry {
	return c.candidates
}

func (c *Composer) appendRune(r rune) {
	c.buffer = append(c.buffer, r)
	c.updateCandidates()
}

func (c *Composer) commitCandidateAt(index int) {
	if index < 0 || index >= c.exactCount {
		return
	}
	c.commitValue(c.candidates[index].Value, string(c.buffer), c.state == StateActive)
}

func (c *Composer) commitValue(value, typedCode string, reverseCommit bool) {
	hint := c.shortestCodeHint(value, typedCode, reverseCommit)
	c.editor.CommitText(value)
	c.clearState()
	c.hint = hint
}

func (c *Composer) commitRaw() {
	if len(c.buffer) > 0 {
		c.editor.CommitText(string(c.buffer))
	}
	c.clearState()
}

func (c *Composer) clearState() {
	c.buffer = c.buffer[:0]
	c.candidates = nil
	c.exactCount = 0
	c.state = StateNone
	c.hint = ""
}

func (c *Composer) updateCandidates() {
	if c.state == StateActive {
		return
	}

	query := strings.ToLower(string(c.buffer))
	if c.isReverseLookupEntering() {
		c.state = StateEntering
		query = query[len(string(ReverseLookupMarker)):]
	} else {
		c.state = StateNone
	}

	c.candidates = c.dict.CodeIndex().QueryPrefix(query)
	c.exactCount = 0
	queryLen := len([]rune(query))
	for c.exactCount < len(c.candidates) && c.candidates[c.exactCount].CodeLength() == queryLen {
		c.exactCount++
	}
}

func (c *Composer) isReverseLookupEntering() bool {
	if c.state == StateActive || len(c.buffer) < 2 {
		return false
	}
	// a letter must follow so that "''" stays a punctuation code
	return c.buffer[0] == ReverseLookupMarker && unicode.IsLetter(c.buffer[1])
}

func (c *Composer) triggerReverseLookup(base int) {
	spells := c.dict.SpellIndex()
	if spells == nil {
		c.logger.Debug("Reverse lookup unavailable, spelling table not loaded")
		return
	}
	if !c.isReverseLookupEntering() || c.exactCount <= 0 {
		return
	}
	if base < 0 || base >= c.exactCount {
		c.logger.Debug("Ignoring reverse lookup base out of range", "index", base, "exact", c.exactCount)
		return
	}

	baseChar := c.candidates[base].Value
	spelling, ok := spells.SpellFor(baseChar)
	var homophones []string
	if ok {
		homophones = spells.ValuesForSpell(spelling)
	}

	var entries []cin.Entry
	if len(homophones) > 0 {
		entries = make([]cin.Entry, len(homophones))
		for i, value := range homophones {
			entries[i] = cin.Entry{Code: spelling, Value: value, SourceOrder: i}
		}
	} else {
		entries = []cin.Entry{{Code: spelling, Value: baseChar}}
	}

	c.state = StateActive
	c.candidates = entries
	c.exactCount = len(entries)
	c.logger.Debug("Reverse lookup", "base", baseChar, "spell", spelling, "homophones", len(entries))
}

func (c *Composer) cancelReverseLookup() {
	if c.state != StateActive {
		return
	}
	c.state = StateEntering
	c.updateCandidates()
}

// IsCodeSymbol reports whether r is a non-letter character that can be
// part of a code.
func IsCodeSymbol(r rune) bool {
	switch r {
	case '\'', ',', '.', '[', ']':
		return true
	}
	return false
}

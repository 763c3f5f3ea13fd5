package compose

import "strings"

// Kind classifies an input event.
type Kind int

const (
	// KindChar is a single typed character. Digits, ' ' and '\n' are
	// routed to digit, space and enter handling.
	KindChar Kind = iota
	// KindText is text inserted as a unit (emoji, pasted symbol strings).
	KindText
	KindSpace
	KindEnter
	KindBackspace
	// KindBackspaceRelease ends a held backspace.
	KindBackspaceRelease
	// KindSelect is a click on the candidate at Index.
	KindSelect
	// KindSelectRaw is a click on the raw buffer.
	KindSelectRaw
	KindCancel
	// KindReset is a focus change to another field.
	KindReset
)

var kindNames = map[Kind]string{
	KindChar:             "char",
	KindText:             "text",
	KindSpace:            "space",
	KindEnter:            "enter",
	KindBackspace:        "backspace",
	KindBackspaceRelease: "release",
	KindSelect:           "select",
	KindSelectRaw:        "raw",
	KindCancel:           "cancel",
	KindReset:            "reset",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Event is one classified input from the key capture layer.
type Event struct {
	Kind Kind
	Rune rune
	Text string
	// Shifted makes a letter produce its uppercase form. Matching always
	// uses lowercase.
	Shifted bool
	// Sensitive marks a password-like field: letters and code symbols
	// commit directly and never reach the buffer.
	Sensitive bool
	// Literal marks a key from a symbol or emoji layout, committed as is.
	Literal bool
	// Repeat marks an auto-repeated backspace.
	Repeat bool
	Index  int
}

// Editor is the text surface the composer commits into.
type Editor interface {
	CommitText(text string)
	// DeleteBackward deletes before the cursor. Used only when the
	// buffer is empty.
	DeleteBackward()
	// PerformEditorAction runs the field's enter action (send, search,
	// newline...).
	PerformEditorAction()
}

// OpKind names an editor operation.
type OpKind string

const (
	OpCommit OpKind = "commit"
	OpDelete OpKind = "delete"
	OpAction OpKind = "action"
)

// Op is a recorded editor operation.
type Op struct {
	Kind OpKind
	Text string
}

// Recorder is an Editor that records operations for later replay.
type Recorder struct {
	ops []Op
}

func (r *Recorder) CommitText(text string) {
	r.ops = append(r.ops, Op{Kind: OpCommit, Text: text})
}

func (r *Recorder) DeleteBackward() {
	r.ops = append(r.ops, Op{Kind: OpDelete})
}

func (r *Recorder) PerformEditorAction() {
	r.ops = append(r.ops, Op{Kind: OpAction})
}

// Ops returns the recorded operations.
func (r *Recorder) Ops() []Op {
	return r.ops
}

// Drain returns the recorded operations and forgets them.
func (r *Recorder) Drain() []Op {
	ops := r.ops
	r.ops = nil
	return ops
}

// Committed concatenates all committed text.
func (r *Recorder) Committed() string {
	var sb strings.Builder
	for _, op := range r.ops {
		if op.Kind == OpCommit {
			sb.WriteString(op.Text)
		}
	}
	return sb.String()
}

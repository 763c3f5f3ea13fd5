/*
Package server implements msgpack IPC for FreeShiamy input sessions.

A host (an editor plugin, a keyboard front end) forwards classified key
events over stdin and renders the candidate bar from the responses on
stdout. Messages are self-delimiting msgpack maps, one per request.

# IPC

Every request names a session and an event kind. Each session owns its own
composition buffer; the dictionaries are shared.

	{"id": "1", "sid": "main", "k": "char", "r": "d"}
	{"id": "2", "sid": "main", "k": "char", "r": "o"}

The response carries the view after the event and the editor operations it
produced:

	{"id": "2", "sid": "main", "raw": "do", "c": [{"v": "喜", "k": "do", "x": true}, {"v": "狗", "k": "dog"}], "n": 2, "st": "NONE", "t": 31}
	{"id": "3", "sid": "main", "raw": "", "c": [], "ops": [{"op": "commit", "t": "喜"}], "st": "NONE", "t": 12}

Kinds: char text space enter backspace release select raw cancel reset
moved close view stats config.

The server sends {"st": "ready"} on start and {"st": "loaded"} once the
tables finished loading, with refreshed views of sessions that were typing
while the dictionary was unavailable.
*/
package server

// Request is one inbound message.
type Request struct {
	ID      string `msgpack:"id"`
	Session string `msgpack:"sid"`
	Kind    string `msgpack:"k"`
	// Rune holds the character of a char event.
	Rune      string `msgpack:"r,omitempty"`
	Text      string `msgpack:"t,omitempty"`
	Shifted   bool   `msgpack:"sh,omitempty"`
	Sensitive bool   `msgpack:"se,omitempty"`
	Literal   bool   `msgpack:"li,omitempty"`
	Repeat    bool   `msgpack:"rp,omitempty"`
	Index     int    `msgpack:"i,omitempty"`
	// Selection is [start, end, composingEnd] of a moved event.
	Selection []int          `msgpack:"sel,omitempty"`
	Config    *ConfigChanges `msgpack:"cfg,omitempty"`
}

// ConfigChanges adjusts runtime settings; absent fields are unchanged.
type ConfigChanges struct {
	InlineLimit              *int  `msgpack:"inline_limit,omitempty"`
	MoreLimit                *int  `msgpack:"more_limit,omitempty"`
	ShowShortestCode         *bool `msgpack:"show_shortest_code,omitempty"`
	DisableInSensitiveFields *bool `msgpack:"disable_in_sensitive_fields,omitempty"`
}

// Candidate is one entry of the candidate bar.
type Candidate struct {
	Value string `msgpack:"v"`
	Code  string `msgpack:"k"`
	Exact bool   `msgpack:"x,omitempty"`
}

// EditorOp is an operation the host must apply to its text field.
type EditorOp struct {
	Op   string `msgpack:"op"`
	Text string `msgpack:"t,omitempty"`
}

// Response is the session view after a request.
type Response struct {
	ID         string      `msgpack:"id"`
	Session    string      `msgpack:"sid"`
	Raw        string      `msgpack:"raw"`
	Candidates []Candidate `msgpack:"c"`
	// Inline is how many of Candidates fit the collapsed bar.
	Inline    int        `msgpack:"n"`
	Hint      string     `msgpack:"h,omitempty"`
	Ops       []EditorOp `msgpack:"ops,omitempty"`
	State     string     `msgpack:"st"`
	TimeTaken int64      `msgpack:"t"`
}

// StatusMessage is sent unsolicited.
type StatusMessage struct {
	Status string            `msgpack:"st"`
	Views  []Response        `msgpack:"v,omitempty"`
	Errors map[string]string `msgpack:"err,omitempty"`
}

// StatsResponse answers a stats request.
type StatsResponse struct {
	ID           string            `msgpack:"id"`
	Status       string            `msgpack:"st"`
	Sessions     int               `msgpack:"s"`
	CodeEntries  int               `msgpack:"ce"`
	SpellEntries int               `msgpack:"se"`
	CodeLoaded   bool              `msgpack:"cl"`
	SpellLoaded  bool              `msgpack:"sl"`
	Loading      bool              `msgpack:"ld"`
	Cache        map[string]int    `msgpack:"qc,omitempty"`
	Errors       map[string]string `msgpack:"err,omitempty"`
}

// ConfigResponse answers a config request with the settings in effect.
type ConfigResponse struct {
	ID                       string `msgpack:"id"`
	Status                   string `msgpack:"st"`
	Error                    string `msgpack:"e,omitempty"`
	InlineLimit              int    `msgpack:"inline_limit"`
	MoreLimit                int    `msgpack:"more_limit"`
	ShowShortestCode         bool   `msgpack:"show_shortest_code"`
	DisableInSensitiveFields bool   `msgpack:"disable_in_sensitive_fields"`
}

// ErrorResponse reports a request that could not be handled.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}

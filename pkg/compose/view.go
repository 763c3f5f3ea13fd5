package compose

// Candidate is one entry of the candidate bar.
type Candidate struct {
	Value string
	Code  string
	// IsExact marks candidates whose code equals the typed code. Only
	// those can be selected with digits or space.
	IsExact bool
}

// View is what the presentation layer shows after a transition.
type View struct {
	RawText    string
	Candidates []Candidate
	HintText   string
}

// View returns the current presentation state. HintText is only set while
// the buffer is empty.
func (c *Composer) View() View {
	v := View{RawText: string(c.buffer)}
	if len(c.candidates) > 0 {
		v.Candidates = make([]Candidate, len(c.candidates))
		for i, e := range c.candidates {
			v.Candidates[i] = Candidate{Value: e.Value, Code: e.Code, IsExact: i < c.exactCount}
		}
	}
	if len(c.buffer) == 0 {
		v.HintText = c.hint
	}
	return v
}

// HintText returns the pending hint, or "".
func (c *Composer) HintText() string {
	if len(c.buffer) > 0 {
		return ""
	}
	return c.hint
}

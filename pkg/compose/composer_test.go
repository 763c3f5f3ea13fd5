package compose

import (
	"strings"
	"testing"

	"github.com/osku/freeshiamy/pkg/cin"
	"github.com/osku/freeshiamy/pkg/spell"
	"github.com/osku/freeshiamy/pkg/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const codeTable = `
do 喜
dog 狗
d 的
g 個
g 各
gx 歌
a 丙
abc 丙
' 、
'' ：
`

const spellTable = `
ㄍㄜˋ 個
ㄍㄜˋ 各
ㄒㄧˇ 喜
`

type staticDict struct {
	codes  *suggest.Index
	spells *spell.Index
}

func (d *staticDict) CodeIndex() *suggest.Index { return d.codes }
func (d *staticDict) SpellIndex() *spell.Index  { return d.spells }

func parse(t *testing.T, table string) []cin.Entry {
	t.Helper()
	entries, err := cin.Parse(strings.NewReader(table))
	require.NoError(t, err)
	return entries
}

func loadedDict(t *testing.T) *staticDict {
	t.Helper()
	return &staticDict{
		codes:  suggest.NewIndex(parse(t, codeTable)),
		spells: spell.NewIndex(parse(t, spellTable)),
	}
}

func newComposer(t *testing.T, opts ...Option) (*Composer, *Recorder) {
	t.Helper()
	rec := &Recorder{}
	return New(loadedDict(t), rec, opts...), rec
}

func typeString(c *Composer, s string) {
	for _, r := range s {
		c.Handle(Event{Kind: KindChar, Rune: r})
	}
}

func values(v View) []string {
	out := make([]string, len(v.Candidates))
	for i, cand := range v.Candidates {
		out[i] = cand.Value
	}
	return out
}

func TestTypingShowsPrefixCandidates(t *testing.T) {
	c, rec := newComposer(t)
	typeString(c, "do")

	view := c.View()
	assert.Equal(t, "do", view.RawText)
	assert.Equal(t, []string{"喜", "狗"}, values(view))
	assert.Equal(t, 1, c.ExactCount())
	assert.True(t, view.Candidates[0].IsExact)
	assert.False(t, view.Candidates[1].IsExact)
	assert.Equal(t, StateNone, c.State())
	assert.Empty(t, rec.Ops())
}

func TestShiftedLetterKeepsCaseButMatchesLowercase(t *testing.T) {
	c, rec := newComposer(t)
	c.Handle(Event{Kind: KindChar, Rune: 'd', Shifted: true})
	c.Handle(Event{Kind: KindChar, Rune: 'O'})

	assert.Equal(t, "Do", c.RawText())
	assert.Equal(t, []string{"喜", "狗"}, values(c.View()))

	c.Enter()
	assert.Equal(t, []Op{{Kind: OpCommit, Text: "Do"}}, rec.Ops())
	assert.Empty(t, c.RawText())
}

func TestSpaceCommitsFirstExact(t *testing.T) {
	c, rec := newComposer(t)
	typeString(c, "do ")

	assert.Equal(t, "喜", rec.Committed())
	assert.Empty(t, c.RawText())
	assert.Empty(t, c.View().Candidates)
	assert.Zero(t, c.ExactCount())
}

func TestSpaceWithoutExactAppends(t *testing.T) {
	c, rec := newComposer(t)
	typeString(c, "x ")
	assert.Equal(t, "x ", c.RawText())
	assert.Empty(t, c.View().Candidates)
	assert.Empty(t, rec.Ops())
}

func TestSpaceOnEmptyBufferCommitsSpace(t *testing.T) {
	c, rec := newComposer(t)
	c.Space()
	assert.Equal(t, []Op{{Kind: OpCommit, Text: " "}}, rec.Ops())
}

func TestDigitSelection(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		committed string
		raw       string
	}{
		{name: "selects exact match", input: "g1", committed: "各"},
		{name: "out of range ignored", input: "g5", raw: "g"},
		{name: "no exact appends", input: "x1", raw: "x1"},
		{name: "empty buffer commits digit", input: "7", committed: "7"},
		{name: "first index", input: "g0", committed: "個"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newComposer(t)
			typeString(c, tt.input)
			assert.Equal(t, tt.committed, rec.Committed())
			assert.Equal(t, tt.raw, c.RawText())
		})
	}
}

func TestLiteralDigitCommitsDirectly(t *testing.T) {
	c, rec := newComposer(t)
	typeString(c, "do")
	c.Handle(Event{Kind: KindChar, Rune: '1', Literal: true})

	assert.Equal(t, "1", rec.Committed())
	assert.Equal(t, "do", c.RawText())
}

func TestBackspace(t *testing.T) {
	c, rec := newComposer(t)
	typeString(c, "dog")
	c.Backspace(false)
	assert.Equal(t, "do", c.RawText())
	assert.Equal(t, []string{"喜", "狗"}, values(c.View()))
	assert.Empty(t, rec.Ops())

	c.ReleaseBackspace()
	c.Backspace(false)
	c.Backspace(false)
	assert.Empty(t, c.RawText())
	assert.Empty(t, rec.Ops())

	c.Backspace(false)
	assert.Equal(t, []Op{{Kind: OpDelete}}, rec.Ops())
}

func TestHeldBackspaceStopsAtEmptyBuffer(t *testing.T) {
	c, rec := newComposer(t)
	typeString(c, "d")

	c.Backspace(false)
	c.Backspace(true)
	c.Backspace(true)
	assert.Empty(t, c.RawText())
	assert.Empty(t, rec.Ops())

	c.ReleaseBackspace()
	c.Backspace(false)
	assert.Equal(t, []Op{{Kind: OpDelete}}, rec.Ops())
}

func TestHeldBackspaceOnEmptyBufferDeletes(t *testing.T) {
	c, rec := newComposer(t)
	c.Backspace(false)
	c.Backspace(true)
	assert.Len(t, rec.Ops(), 2)
}

func TestEnterOnEmptyBufferRunsEditorAction(t *testing.T) {
	c, rec := newComposer(t)
	c.Handle(Event{Kind: KindEnter})
	assert.Equal(t, []Op{{Kind: OpAction}}, rec.Ops())
}

func TestSensitiveFieldBypassesBuffer(t *testing.T) {
	c, rec := newComposer(t)
	c.Handle(Event{Kind: KindChar, Rune: 'd', Sensitive: true})
	c.Handle(Event{Kind: KindChar, Rune: 'o', Sensitive: true, Shifted: true})
	c.Handle(Event{Kind: KindChar, Rune: ',', Sensitive: true})

	assert.Equal(t, "dO,", rec.Committed())
	assert.Empty(t, c.RawText())
}

func TestNonCodeSymbol(t *testing.T) {
	c, rec := newComposer(t)
	c.Handle(Event{Kind: KindChar, Rune: '?'})
	assert.Equal(t, "?", rec.Committed())

	typeString(c, "d?")
	assert.Equal(t, "d?", c.RawText())
	assert.Equal(t, "?", rec.Committed())
}

func TestCodeSymbolsJoinBuffer(t *testing.T) {
	c, _ := newComposer(t)
	typeString(c, "''")
	assert.Equal(t, StateNone, c.State())
	assert.Equal(t, []string{"："}, values(c.View()))
	assert.Equal(t, 1, c.ExactCount())
}

func TestReverseLookup(t *testing.T) {
	c, rec := newComposer(t)
	typeString(c, "'g")
	assert.Equal(t, StateEntering, c.State())
	assert.Equal(t, []string{"個", "各", "歌"}, values(c.View()))
	assert.Equal(t, 2, c.ExactCount())

	c.Space()
	assert.Equal(t, StateActive, c.State())
	assert.Equal(t, "'g", c.RawText())
	assert.Equal(t, []string{"個", "各"}, values(c.View()))
	assert.Equal(t, 2, c.ExactCount())
	for _, cand := range c.View().Candidates {
		assert.Equal(t, "ㄍㄜˋ", cand.Code)
		assert.True(t, cand.IsExact)
	}
	assert.Empty(t, rec.Ops())

	c.Handle(Event{Kind: KindChar, Rune: '1'})
	assert.Equal(t, "各", rec.Committed())
	assert.Equal(t, StateNone, c.State())
	assert.Equal(t, HintPrefix+"G", c.View().HintText)
}

func TestReverseLookupBackspaceReturnsToEntering(t *testing.T) {
	c, _ := newComposer(t)
	typeString(c, "'g")
	c.Handle(Event{Kind: KindChar, Rune: '0'})
	require.Equal(t, StateActive, c.State())

	c.Backspace(false)
	assert.Equal(t, StateEntering, c.State())
	assert.Equal(t, "'g", c.RawText())
	assert.Equal(t, []string{"個", "各", "歌"}, values(c.View()))

	c.Backspace(false)
	assert.Equal(t, StateNone, c.State())
	assert.Equal(t, "'", c.RawText())
	assert.Equal(t, []string{"、", "："}, values(c.View()))
}

func TestReverseLookupTypingCancelsActive(t *testing.T) {
	c, _ := newComposer(t)
	typeString(c, "'g ")
	require.Equal(t, StateActive, c.State())

	typeString(c, "x")
	assert.Equal(t, StateEntering, c.State())
	assert.Equal(t, "'gx", c.RawText())
	assert.Equal(t, []string{"歌"}, values(c.View()))
}

func TestReverseLookupWithoutSpelling(t *testing.T) {
	c, _ := newComposer(t)
	typeString(c, "'gx ")
	require.Equal(t, StateActive, c.State())

	view := c.View()
	require.Len(t, view.Candidates, 1)
	assert.Equal(t, Candidate{Value: "歌", IsExact: true}, view.Candidates[0])
}

func TestReverseLookupDigitOutOfRange(t *testing.T) {
	c, rec := newComposer(t)
	typeString(c, "'g5")
	assert.Equal(t, StateEntering, c.State())
	assert.Equal(t, "'g", c.RawText())

	typeString(c, " 9")
	assert.Equal(t, StateActive, c.State())
	assert.Empty(t, rec.Ops())
}

func TestReverseLookupEnteringWithoutExactMatches(t *testing.T) {
	tests := []struct {
		name  string
		input string
		raw   string
		exact int
	}{
		{name: "space is typed", input: "'q ", raw: "'q "},
		{name: "digit is typed", input: "'q1", raw: "'q1"},
		{name: "digit past exact matches ignored", input: "'gx9", raw: "'gx", exact: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newComposer(t)
			typeString(c, tt.input)

			assert.Equal(t, StateEntering, c.State())
			assert.Equal(t, tt.raw, c.RawText())
			assert.Equal(t, tt.exact, c.ExactCount())
			assert.Empty(t, rec.Ops())
		})
	}
}

func TestReverseLookupNeedsSpellIndex(t *testing.T) {
	dict := loadedDict(t)
	dict.spells = nil
	c := New(dict, &Recorder{})

	typeString(c, "'g ")
	assert.Equal(t, StateEntering, c.State())
	assert.Equal(t, "'g", c.RawText())
}

func TestSelect(t *testing.T) {
	t.Run("commits any candidate", func(t *testing.T) {
		c, rec := newComposer(t)
		typeString(c, "do")
		c.Select(1)
		assert.Equal(t, "狗", rec.Committed())
		assert.Empty(t, c.RawText())
	})

	t.Run("out of range ignored", func(t *testing.T) {
		c, rec := newComposer(t)
		typeString(c, "do")
		c.Select(2)
		c.Select(-1)
		assert.Empty(t, rec.Ops())
		assert.Equal(t, "do", c.RawText())
	})

	t.Run("exact while entering starts lookup", func(t *testing.T) {
		c, rec := newComposer(t)
		typeString(c, "'g")
		c.Select(1)
		assert.Equal(t, StateActive, c.State())
		assert.Empty(t, rec.Ops())
	})

	t.Run("prefix while entering commits", func(t *testing.T) {
		c, rec := newComposer(t)
		typeString(c, "'g")
		c.Select(2)
		assert.Equal(t, "歌", rec.Committed())
		assert.Equal(t, StateNone, c.State())
	})
}

func TestRawCommits(t *testing.T) {
	c, rec := newComposer(t)
	typeString(c, "xyz")
	c.SelectRaw()
	assert.Equal(t, "xyz", rec.Committed())

	typeString(c, "do")
	c.Cancel()
	assert.Equal(t, "xyzdo", rec.Committed())
	assert.Empty(t, c.RawText())
	assert.Empty(t, c.View().HintText)

	c.Cancel()
	assert.Len(t, rec.Ops(), 2)
}

func TestHint(t *testing.T) {
	t.Run("shorter code after long typed code", func(t *testing.T) {
		c, _ := newComposer(t)
		typeString(c, "abc ")
		assert.Equal(t, "字根：A", c.View().HintText)
	})

	t.Run("short typed code never hints", func(t *testing.T) {
		c, _ := newComposer(t)
		typeString(c, "do ")
		assert.Empty(t, c.View().HintText)
	})

	t.Run("typed code already shortest", func(t *testing.T) {
		c, _ := newComposer(t)
		typeString(c, "dog ")
		assert.Empty(t, c.View().HintText)
	})

	t.Run("disabled", func(t *testing.T) {
		c, _ := newComposer(t, WithShortestCodeHint(false))
		typeString(c, "abc ")
		assert.Empty(t, c.View().HintText)
	})

	t.Run("cleared by next key", func(t *testing.T) {
		c, _ := newComposer(t)
		typeString(c, "abc ")
		require.NotEmpty(t, c.View().HintText)
		c.Backspace(false)
		assert.Empty(t, c.View().HintText)
	})

	t.Run("raw commit never hints", func(t *testing.T) {
		c, _ := newComposer(t)
		typeString(c, "abc")
		c.Enter()
		assert.Empty(t, c.View().HintText)
	})
}

func TestText(t *testing.T) {
	c, rec := newComposer(t)
	c.Text(Event{Kind: KindText, Text: "😀"})
	assert.Equal(t, "😀", rec.Committed())

	c.Text(Event{Kind: KindText, Text: "d"})
	assert.Equal(t, "d", c.RawText())

	c.Handle(Event{Kind: KindText, Text: "ok"})
	assert.Equal(t, "😀ok", rec.Committed())
	assert.Equal(t, "d", c.RawText())
}

func TestTextCancelsActiveLookup(t *testing.T) {
	c, rec := newComposer(t)
	typeString(c, "'g ")
	require.Equal(t, StateActive, c.State())

	c.Text(Event{Kind: KindText, Text: "👍"})
	assert.Equal(t, StateEntering, c.State())
	assert.Equal(t, "👍", rec.Committed())
}

func TestSelectionMoved(t *testing.T) {
	c, _ := newComposer(t)
	typeString(c, "do")

	c.SelectionMoved(2, 2, 2)
	assert.Equal(t, "do", c.RawText())

	c.SelectionMoved(0, 0, 2)
	assert.Empty(t, c.RawText())
	assert.Empty(t, c.View().Candidates)
}

func TestReset(t *testing.T) {
	c, rec := newComposer(t)
	typeString(c, "'g ")
	c.Handle(Event{Kind: KindReset})
	assert.Equal(t, StateNone, c.State())
	assert.Empty(t, c.RawText())
	assert.Empty(t, rec.Ops())
}

func TestUnloadedDictionaryDegradesToRawKeyboard(t *testing.T) {
	dict := &staticDict{}
	rec := &Recorder{}
	c := New(dict, rec)

	typeString(c, "do ")
	assert.Equal(t, "do ", c.RawText())
	assert.Empty(t, c.View().Candidates)
	assert.Empty(t, rec.Ops())

	c.Backspace(false)
	dict.codes = loadedDict(t).codes
	c.Refresh()
	assert.Equal(t, []string{"喜", "狗"}, values(c.View()))
}

func TestCommitClearsState(t *testing.T) {
	c, _ := newComposer(t)
	typeString(c, "g1")
	assert.Empty(t, c.RawText())
	assert.Empty(t, c.Candidates())
	assert.Zero(t, c.ExactCount())
	assert.Equal(t, StateNone, c.State())
}

func TestKindNames(t *testing.T) {
	for k := KindChar; k <= KindReset; k++ {
		parsed, ok := ParseKind(k.String())
		require.True(t, ok, k.String())
		assert.Equal(t, k, parsed)
	}
	_, ok := ParseKind("bogus")
	assert.False(t, ok)
}

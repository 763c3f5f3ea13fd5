package spell

import (
	"strings"
	"testing"

	"github.com/osku/freeshiamy/pkg/cin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spellings deliberately differ in length so the canonical code sort
// would reorder them
const spellTable = `
# zhuyin spellings
ㄒㄧˇ 喜
ㄒㄧˇ 洗
ㄍㄡˇ 狗
ㄒㄧˇ 璽
ㄉㄜ˙ 的
ㄉㄧˊ 的
ㄉㄧˋ 地
ㄉㄜ˙ 地
ㄅ ㄅ
`

func buildIndex(t *testing.T) *Index {
	t.Helper()
	entries, err := cin.Parse(strings.NewReader(spellTable))
	require.NoError(t, err)
	return NewIndex(entries)
}

func TestValuesForSpellKeepsFileOrder(t *testing.T) {
	ix := buildIndex(t)
	assert.Equal(t, []string{"喜", "洗", "璽"}, ix.ValuesForSpell("ㄒㄧˇ"))
	assert.Equal(t, []string{"的", "地"}, ix.ValuesForSpell("ㄉㄜ˙"))
	assert.Empty(t, ix.ValuesForSpell("ㄇㄠ"))
}

func TestSpellForFirstOccurrenceWins(t *testing.T) {
	ix := buildIndex(t)

	spell, ok := ix.SpellFor("的")
	require.True(t, ok)
	assert.Equal(t, "ㄉㄜ˙", spell)

	spell, ok = ix.SpellFor("地")
	require.True(t, ok)
	assert.Equal(t, "ㄉㄧˋ", spell)

	_, ok = ix.SpellFor("貓")
	assert.False(t, ok)
}

func TestSpellsInFileOrder(t *testing.T) {
	ix := buildIndex(t)
	assert.Equal(t, []string{"ㄒㄧˇ", "ㄍㄡˇ", "ㄉㄜ˙", "ㄉㄧˊ", "ㄉㄧˋ", "ㄅ"}, ix.Spells())
	assert.Equal(t, 6, ix.Len())
}

func TestValuesForSpellReturnsCopy(t *testing.T) {
	ix := buildIndex(t)
	values := ix.ValuesForSpell("ㄒㄧˇ")
	values[0] = "X"
	assert.Equal(t, "喜", ix.ValuesForSpell("ㄒㄧˇ")[0])
}

func TestNilIndex(t *testing.T) {
	var ix *Index
	_, ok := ix.SpellFor("的")
	assert.False(t, ok)
	assert.Empty(t, ix.ValuesForSpell("ㄉㄜ˙"))
	assert.Empty(t, ix.Spells())
	assert.Equal(t, 0, ix.Len())
}

// Package spell is the phonetic reverse-lookup index.
//
// It is built from a spelling table (phonetic code -> character) and keeps
// the table's own line order, which is the curator's presentation order for
// homophones.
package spell

import (
	"slices"

	"github.com/charmbracelet/log"
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/osku/freeshiamy/pkg/cin"
)

// Index maps characters to spellings and spellings to homophones.
// A nil *Index behaves like an empty table.
type Index struct {
	spellToValues *linkedhashmap.Map // string -> []string, spellings in file order
	valueToSpell  map[string]string
}

// NewIndex builds the index from parsed spelling table entries. The input
// order does not matter, file order is recovered from SourceOrder.
func NewIndex(entries []cin.Entry) *Index {
	ordered := slices.Clone(entries)
	slices.SortStableFunc(ordered, func(a, b cin.Entry) int {
		return a.SourceOrder - b.SourceOrder
	})

	ix := &Index{
		spellToValues: linkedhashmap.New(),
		valueToSpell:  make(map[string]string, len(ordered)),
	}
	for _, entry := range ordered {
		var values []string
		if existing, found := ix.spellToValues.Get(entry.Code); found {
			values = existing.([]string)
		}
		ix.spellToValues.Put(entry.Code, append(values, entry.Value))

		// heteronyms keep their first spelling
		if _, seen := ix.valueToSpell[entry.Value]; !seen {
			ix.valueToSpell[entry.Value] = entry.Code
		}
	}

	log.Debugf("Spell index built: %d spellings, %d characters", ix.spellToValues.Size(), len(ix.valueToSpell))
	return ix
}

// SpellFor returns the first spelling associated with value.
func (ix *Index) SpellFor(value string) (string, bool) {
	if ix == nil {
		return "", false
	}
	spell, ok := ix.valueToSpell[value]
	return spell, ok
}

// ValuesForSpell returns the characters sharing spell, in file order.
func (ix *Index) ValuesForSpell(spell string) []string {
	if ix == nil {
		return nil
	}
	values, found := ix.spellToValues.Get(spell)
	if !found {
		return nil
	}
	return slices.Clone(values.([]string))
}

// Spells returns every spelling in file order.
func (ix *Index) Spells() []string {
	if ix == nil {
		return nil
	}
	keys := ix.spellToValues.Keys()
	spells := make([]string, len(keys))
	for i, k := range keys {
		spells[i] = k.(string)
	}
	return spells
}

// Len returns the number of distinct spellings.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return ix.spellToValues.Size()
}

// Stats returns counters about the index.
func (ix *Index) Stats() map[string]int {
	if ix == nil {
		return map[string]int{"spellings": 0, "characters": 0}
	}
	return map[string]int{
		"spellings":  ix.spellToValues.Size(),
		"characters": len(ix.valueToSpell),
	}
}

// Package suggest answers code prefix queries over a loaded code table.
//
// An Index is built once from canonical-ordered entries (see package cin)
// and is read-only afterwards, so any number of goroutines may query it.
// A nil *Index behaves like an empty dictionary.
package suggest

import (
	"slices"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/osku/freeshiamy/pkg/cin"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Index is the code lookup index.
type Index struct {
	entries  []cin.Entry
	trie     *patricia.Trie
	shortest map[string]string
	cache    *QueryCache
}

// IndexOption configures an Index.
type IndexOption func(*Index)

// WithCache keeps the results of up to size recent prefix queries.
func WithCache(size int) IndexOption {
	return func(ix *Index) {
		if size > 0 {
			ix.cache = NewQueryCache(size)
		}
	}
}

// NewIndex builds an index over entries, which must already be in
// canonical order (as returned by cin.Parse). The slice is retained.
func NewIndex(entries []cin.Entry, opts ...IndexOption) *Index {
	ix := &Index{
		entries:  entries,
		trie:     patricia.NewTrie(),
		shortest: make(map[string]string, len(entries)),
	}
	for _, opt := range opts {
		opt(ix)
	}

	for pos, entry := range entries {
		key := patricia.Prefix(entry.Code)
		if item := ix.trie.Get(key); item != nil {
			ix.trie.Set(key, append(item.([]int), pos))
		} else {
			ix.trie.Insert(key, []int{pos})
		}
		// first in canonical order is the shortest code
		if _, seen := ix.shortest[entry.Value]; !seen {
			ix.shortest[entry.Value] = entry.Code
		}
	}

	log.Debugf("Code index built: %d entries, %d distinct values", len(entries), len(ix.shortest))
	return ix
}

// QueryPrefix returns the entries whose code starts with prefix, in
// canonical order. It returns nil for an empty prefix or one containing
// whitespace. The returned slice must not be modified.
func (ix *Index) QueryPrefix(prefix string) []cin.Entry {
	if ix == nil || prefix == "" || strings.IndexFunc(prefix, unicode.IsSpace) >= 0 {
		return nil
	}
	if ix.cache != nil {
		if cached, ok := ix.cache.Get(prefix); ok {
			return cached
		}
	}

	var positions []int
	err := ix.trie.VisitSubtree(patricia.Prefix(prefix), func(_ patricia.Prefix, item patricia.Item) error {
		positions = append(positions, item.([]int)...)
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting code trie subtree: %v", err)
		return nil
	}

	// trie traversal order is not canonical order
	slices.Sort(positions)
	result := make([]cin.Entry, len(positions))
	for i, pos := range positions {
		result[i] = ix.entries[pos]
	}

	if ix.cache != nil {
		ix.cache.Put(prefix, result)
	}
	return result
}

// ShortestCodeForValue returns the first code in canonical order that
// resolves to value.
func (ix *Index) ShortestCodeForValue(value string) (string, bool) {
	if ix == nil {
		return "", false
	}
	code, ok := ix.shortest[value]
	return code, ok
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}

// Entries returns all entries in canonical order. The slice must not be
// modified.
func (ix *Index) Entries() []cin.Entry {
	if ix == nil {
		return nil
	}
	return ix.entries
}

// Stats returns counters about the index.
func (ix *Index) Stats() map[string]int {
	if ix == nil {
		return map[string]int{"entries": 0}
	}
	stats := map[string]int{
		"entries":        len(ix.entries),
		"distinctValues": len(ix.shortest),
	}
	if ix.cache != nil {
		for k, v := range ix.cache.Stats() {
			stats[k] = v
		}
	}
	return stats
}

package suggest

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/osku/freeshiamy/pkg/cin"
)

// QueryCache keeps recent prefix query results. Short prefixes match large
// parts of the table, and typing revisits them on every backspace.
type QueryCache struct {
	results     map[string][]cin.Entry
	accessTime  map[string]int64
	accessCount int64
	hits        int64
	misses      int64
	maxPrefixes int
	mu          sync.Mutex
}

// NewQueryCache creates a cache holding at most maxPrefixes results.
func NewQueryCache(maxPrefixes int) *QueryCache {
	return &QueryCache{
		results:     make(map[string][]cin.Entry, maxPrefixes),
		accessTime:  make(map[string]int64, maxPrefixes),
		maxPrefixes: maxPrefixes,
	}
}

// Get returns the cached result for prefix.
func (qc *QueryCache) Get(prefix string) ([]cin.Entry, bool) {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	result, ok := qc.results[prefix]
	if !ok {
		qc.misses++
		return nil, false
	}
	qc.hits++
	qc.accessTime[prefix] = qc.nextAccessTime()
	return result, true
}

// Put stores result for prefix, evicting the least recently used prefix
// when full.
func (qc *QueryCache) Put(prefix string, result []cin.Entry) {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	if _, exists := qc.results[prefix]; !exists && len(qc.results) >= qc.maxPrefixes {
		qc.evictLRU()
	}
	qc.results[prefix] = result
	qc.accessTime[prefix] = qc.nextAccessTime()
}

// Len returns the number of cached prefixes.
func (qc *QueryCache) Len() int {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	return len(qc.results)
}

// Stats returns cache counters.
func (qc *QueryCache) Stats() map[string]int {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	return map[string]int{
		"cachedPrefixes": len(qc.results),
		"maxPrefixes":    qc.maxPrefixes,
		"cacheHits":      int(qc.hits),
		"cacheMisses":    int(qc.misses),
	}
}

func (qc *QueryCache) nextAccessTime() int64 {
	qc.accessCount++
	return qc.accessCount
}

func (qc *QueryCache) evictLRU() {
	var oldestPrefix string
	var oldestTime int64 = 1<<63 - 1

	for prefix, accessTime := range qc.accessTime {
		if accessTime < oldestTime {
			oldestTime = accessTime
			oldestPrefix = prefix
		}
	}

	if oldestPrefix != "" {
		delete(qc.results, oldestPrefix)
		delete(qc.accessTime, oldestPrefix)
		log.Debugf("Evicted prefix '%s' from query cache", oldestPrefix)
	}
}

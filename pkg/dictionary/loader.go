// Package dictionary owns the process-wide code and spelling indexes.
//
// A Loader parses both tables in the background exactly once and then
// publishes immutable indexes. Until a table is published its accessor
// returns nil, which the index types treat as an empty dictionary, so
// callers never block on loading.
package dictionary

import (
	"context"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/osku/freeshiamy/internal/logger"
	"github.com/osku/freeshiamy/pkg/cin"
	"github.com/osku/freeshiamy/pkg/spell"
	"github.com/osku/freeshiamy/pkg/suggest"
)

// Default table file names.
const (
	DefaultCodeTable  = "freeshiamy.cin"
	DefaultSpellTable = "cht_spells.cin"
)

// table is one lazily loaded index.
type table[T any] struct {
	name     string
	index    atomic.Pointer[T]
	loading  atomic.Bool
	build    func([]cin.Entry) *T
	err      error
	entries  int
	loadTime time.Duration
}

// Loader loads the code table and the spelling table.
type Loader struct {
	fsys      fs.FS
	cacheSize int
	codes     *table[suggest.Index]
	spells    *table[spell.Index]
	logger    *log.Logger

	mu        sync.Mutex
	pending   int
	listeners []func()
	done      chan struct{}
	doneOnce  sync.Once
}

// LoaderStats reports the loading state.
type LoaderStats struct {
	CodeEntries   int
	SpellEntries  int
	CodeLoaded    bool
	SpellLoaded   bool
	IsLoading     bool
	CodeLoadTime  time.Duration
	SpellLoadTime time.Duration
	Errors        map[string]string
}

// Option configures a Loader.
type Option func(*Loader)

// WithCodeTable sets the code table file name.
func WithCodeTable(name string) Option {
	return func(l *Loader) { l.codes.name = name }
}

// WithSpellTable sets the spelling table file name.
func WithSpellTable(name string) Option {
	return func(l *Loader) { l.spells.name = name }
}

// WithQueryCache enables a prefix query cache of the given size on the
// code index.
func WithQueryCache(size int) Option {
	return func(l *Loader) { l.cacheSize = size }
}

// NewLoader creates a loader reading tables from fsys. Nothing is read
// until Start is called.
func NewLoader(fsys fs.FS, opts ...Option) *Loader {
	l := &Loader{
		fsys:   fsys,
		logger: logger.New("dict"),
		done:   make(chan struct{}),
	}
	l.codes = &table[suggest.Index]{
		name: DefaultCodeTable,
		build: func(entries []cin.Entry) *suggest.Index {
			return suggest.NewIndex(entries, suggest.WithCache(l.cacheSize))
		},
	}
	l.spells = &table[spell.Index]{
		name:  DefaultSpellTable,
		build: spell.NewIndex,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewDirLoader creates a loader reading tables from dir.
func NewDirLoader(dir string, opts ...Option) *Loader {
	return NewLoader(os.DirFS(dir), opts...)
}

// Start triggers background loading of any table that is neither loaded
// nor loading. It never blocks; concurrent calls collapse into a single
// load per table. A table whose load failed is loaded again only by a
// later explicit Start.
func (l *Loader) Start() {
	// held until both tables are scheduled, so a fast first load cannot
	// close Done before the second one starts
	l.mu.Lock()
	l.pending++
	l.mu.Unlock()

	ensure(l, l.codes)
	ensure(l, l.spells)
	l.release(false)
}

func ensure[T any](l *Loader, t *table[T]) {
	if t.index.Load() != nil || !t.loading.CompareAndSwap(false, true) {
		return
	}
	// lost a race with a load that just finished
	if t.index.Load() != nil {
		t.loading.Store(false)
		return
	}

	l.mu.Lock()
	l.pending++
	l.mu.Unlock()

	go func() {
		start := time.Now()
		entries, err := cin.ParseFS(l.fsys, t.name)

		l.mu.Lock()
		if err != nil {
			t.err = err
			l.logger.Errorf("Failed to load table %s: %v", t.name, err)
		} else {
			t.err = nil
			t.entries = len(entries)
			t.loadTime = time.Since(start)
		}
		l.mu.Unlock()

		if err == nil {
			t.index.Store(t.build(entries))
			l.logger.Debugf("Table %s loaded: %d entries in %v", t.name, len(entries), time.Since(start))
		}
		t.loading.Store(false)
		l.release(true)
	}()
}

// release drops one pending load. notify runs the OnLoaded listeners.
func (l *Loader) release(notify bool) {
	l.mu.Lock()
	l.pending--
	pending := l.pending
	var listeners []func()
	if notify {
		listeners = make([]func(), len(l.listeners))
		copy(listeners, l.listeners)
	}
	l.mu.Unlock()

	if pending == 0 {
		l.doneOnce.Do(func() { close(l.done) })
	}
	for _, fn := range listeners {
		fn()
	}
}

// CodeIndex returns the code index, or nil while it is unavailable.
func (l *Loader) CodeIndex() *suggest.Index {
	return l.codes.index.Load()
}

// SpellIndex returns the spelling index, or nil while it is unavailable.
func (l *Loader) SpellIndex() *spell.Index {
	return l.spells.index.Load()
}

// OnLoaded registers fn to run after every table load attempt finishes.
// fn runs on the loading goroutine.
func (l *Loader) OnLoaded(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// Done is closed once the first load attempt of both tables has finished,
// successfully or not.
func (l *Loader) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until Done is closed or ctx ends.
func (l *Loader) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns current loading statistics.
func (l *Loader) Stats() LoaderStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := LoaderStats{
		CodeEntries:   l.codes.entries,
		SpellEntries:  l.spells.entries,
		CodeLoaded:    l.codes.index.Load() != nil,
		SpellLoaded:   l.spells.index.Load() != nil,
		IsLoading:     l.codes.loading.Load() || l.spells.loading.Load(),
		CodeLoadTime:  l.codes.loadTime,
		SpellLoadTime: l.spells.loadTime,
		Errors:        make(map[string]string),
	}
	if l.codes.err != nil {
		stats.Errors[l.codes.name] = l.codes.err.Error()
	}
	if l.spells.err != nil {
		stats.Errors[l.spells.name] = l.spells.err.Error()
	}
	return stats
}

package crawler

import (
	"sync"
	"sync/atomic"
)

// CountAccumulator sums word counts merged from many pages concurrently.
//
// Each word has its own atomic counter, so a merge is a lookup plus one
// atomic add. Addition commutes, so the final counts do not depend on the
// order in which pages finish.
type CountAccumulator struct {
	counts sync.Map // word -> *atomic.Int64
	words  atomic.Int64
}

// NewCountAccumulator returns an empty CountAccumulator.
func NewCountAccumulator() *CountAccumulator {
	return &CountAccumulator{}
}

// Merge adds count to word, creating the entry if needed.
func (a *CountAccumulator) Merge(word string, count int) {
	v, ok := a.counts.Load(word)
	if !ok {
		var loaded bool
		v, loaded = a.counts.LoadOrStore(word, new(atomic.Int64))
		if !loaded {
			a.words.Add(1)
		}
	}
	v.(*atomic.Int64).Add(int64(count)) //nolint:forcetypeassert // only *atomic.Int64 is stored
}

// MergeAll merges every entry of counts.
func (a *CountAccumulator) MergeAll(counts map[string]int) {
	for word, count := range counts {
		a.Merge(word, count)
	}
}

// Len returns the number of distinct words.
func (a *CountAccumulator) Len() int {
	return int(a.words.Load())
}

// Snapshot returns a copy of the current counts.
func (a *CountAccumulator) Snapshot() map[string]int {
	snapshot := make(map[string]int, a.Len())
	a.counts.Range(func(k, v any) bool {
		snapshot[k.(string)] = int(v.(*atomic.Int64).Load()) //nolint:forcetypeassert // fixed key and value types
		return true
	})
	return snapshot
}

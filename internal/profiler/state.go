package profiler

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nao1215/wordcrawl/internal/model"
)

// stateKey identifies one profiled method.
type stateKey struct {
	iface  string
	method string
}

// stateEntry accumulates timing for one method.
type stateEntry struct {
	nanos atomic.Int64
	calls atomic.Int64
}

// State holds the accumulated timing of every profiled method.
// Entries only grow; nothing resets them.
//
// Design decision: We use sync.Map with atomic counters rather than a
// mutex-protected map because many worker goroutines record into the same
// few keys. After the first call for a key, recording is two atomic adds.
type State struct {
	entries sync.Map // stateKey -> *stateEntry
}

// NewState returns an empty State.
func NewState() *State {
	return &State{}
}

// Record adds one invocation of iface#method that took d.
func (s *State) Record(iface, method string, d time.Duration) {
	k := stateKey{iface: iface, method: method}
	v, ok := s.entries.Load(k)
	if !ok {
		v, _ = s.entries.LoadOrStore(k, &stateEntry{})
	}
	e := v.(*stateEntry) //nolint:forcetypeassert // only *stateEntry is stored
	e.nanos.Add(int64(d))
	e.calls.Add(1)
}

// Entries returns a snapshot of all entries sorted by "<interface>#<method>".
func (s *State) Entries() []model.ProfileEntry {
	entries := make([]model.ProfileEntry, 0)
	s.entries.Range(func(k, v any) bool {
		key := k.(stateKey)  //nolint:forcetypeassert // only stateKey is stored
		e := v.(*stateEntry) //nolint:forcetypeassert // only *stateEntry is stored
		entries = append(entries, model.ProfileEntry{
			Interface: key.iface,
			Method:    key.method,
			Duration:  time.Duration(e.nanos.Load()),
			Calls:     e.calls.Load(),
		})
		return true
	})

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key() < entries[j].Key()
	})
	return entries
}

// Len returns the number of distinct profiled methods recorded so far.
func (s *State) Len() int {
	n := 0
	s.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Write writes one line per entry to w.
func (s *State) Write(w io.Writer) error {
	for _, e := range s.Entries() {
		if _, err := fmt.Fprintf(w, "%s took %s (%d calls)\n", e.Key(), formatDuration(e.Duration), e.Calls); err != nil {
			return err
		}
	}
	return nil
}

// formatDuration renders d as "<minutes>m <seconds>s <millis>ms".
func formatDuration(d time.Duration) string {
	minutes := int64(d / time.Minute)
	seconds := int64((d % time.Minute) / time.Second)
	millis := int64((d % time.Second) / time.Millisecond)
	return fmt.Sprintf("%dm %ds %dms", minutes, seconds, millis)
}

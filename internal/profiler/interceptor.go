package profiler

import (
	"github.com/nao1215/wordcrawl/internal/clock"
)

// Method describes one method of a profiled interface.
type Method struct {
	// Name is the Go method name, e.g. "Parse".
	Name string

	// Profiled marks the method for timing. Unmarked methods pass through
	// the decorator without touching the profiling state.
	Profiled bool
}

// Interface describes an interface T that can be wrapped by a Profiler.
type Interface[T any] struct {
	// Name identifies the interface in reports, e.g. "crawler.PageParser".
	Name string

	// Methods lists the interface's methods.
	Methods []Method

	// Decorate builds a T that forwards every method to delegate and routes
	// each call through ic.
	Decorate func(delegate T, ic *Interceptor) T
}

// profiledMethods returns the set of methods marked as profiled.
func (i Interface[T]) profiledMethods() map[string]bool {
	set := make(map[string]bool)
	for _, m := range i.Methods {
		if m.Profiled {
			set[m.Name] = true
		}
	}
	return set
}

// Interceptor times calls made through a decorator.
// One Interceptor is bound to one wrapped delegate.
type Interceptor struct {
	iface    string
	profiled map[string]bool
	clock    clock.Clock
	state    *State
}

// IsProfiled reports whether method is timed.
func (ic *Interceptor) IsProfiled(method string) bool {
	return ic.profiled[method]
}

// Call runs fn on behalf of method. When method is profiled, the elapsed
// time is recorded on every exit path, including a panic in fn. The error
// returned by fn is returned unchanged.
func (ic *Interceptor) Call(method string, fn func() error) error {
	if !ic.profiled[method] {
		return fn()
	}

	start := ic.clock.Now()
	defer func() {
		ic.state.Record(ic.iface, method, ic.clock.Now().Sub(start))
	}()

	return fn()
}

// Invoke is Call for methods that return a value.
func Invoke[R any](ic *Interceptor, method string, fn func() (R, error)) (R, error) {
	var result R
	err := ic.Call(method, func() error {
		var err error
		result, err = fn()
		return err
	})
	return result, err
}

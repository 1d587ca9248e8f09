// Package profiler measures how long selected interface methods take.
//
// # Architecture
//
// A Profiler owns a State that maps (interface, method) to the accumulated
// duration and invocation count. Callers wrap an implementation of an
// interface with Wrap, passing an Interface descriptor that lists the
// interface's methods, marks which of them are profiled, and knows how to
// build a decorator around a delegate.
//
// Design decision: Go has no runtime proxy for arbitrary interfaces, so each
// profiled interface ships a small hand-written decorator type. The decorator
// forwards every method to the delegate and routes calls through an
// Interceptor, which times only the methods marked as profiled:
//
//	var ParserInterface = profiler.Interface[PageParser]{
//	    Name:    "crawler.PageParser",
//	    Methods: []profiler.Method{{Name: "Parse", Profiled: true}},
//	    Decorate: func(d PageParser, ic *profiler.Interceptor) PageParser {
//	        return &profiledParser{delegate: d, ic: ic}
//	    },
//	}
//
//	p := profiler.New(clock.NewSystem())
//	parser, err := profiler.Wrap(p, ParserInterface, htmlParser)
//
// # Reports
//
// WriteData writes one run section ("Run at ..." header, one line per
// method, blank line). WriteFile appends that section to a file so that
// repeated runs accumulate in a single report.
package profiler

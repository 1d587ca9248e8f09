// Package clock provides the time source used for crawl deadlines and
// profiling measurements.
//
// Components never call time.Now directly. They take a Clock so that tests
// can move time forward explicitly and observe deadline behavior without
// sleeping.
package clock

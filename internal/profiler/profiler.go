package profiler

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/wordcrawl/internal/clock"
	"github.com/nao1215/wordcrawl/internal/model"
)

// runHeaderFormat is the timestamp layout of the "Run at" header.
const runHeaderFormat = time.RFC1123Z

// Profiler wraps interface implementations and accumulates their timing.
// A single Profiler can wrap any number of delegates; all of them record
// into the same State.
type Profiler struct {
	// clock measures method durations.
	clock clock.Clock

	// state accumulates timing for every wrapped delegate.
	state *State

	// startTime is the instant the Profiler was created.
	// It is printed in the header of every run section.
	startTime time.Time
}

// New creates a Profiler that measures time with clk.
func New(clk clock.Clock) *Profiler {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Profiler{
		clock:     clk,
		state:     NewState(),
		startTime: clk.Now(),
	}
}

// Wrap returns a T that behaves exactly like delegate, recording the
// duration of every call to a method marked as profiled in iface.
//
// Wrap fails with ErrNoProfiledMethod, without building a decorator or
// touching delegate, if iface marks no method as profiled.
func Wrap[T any](p *Profiler, iface Interface[T], delegate T) (T, error) {
	var zero T

	profiled := iface.profiledMethods()
	if len(profiled) == 0 {
		return zero, fmt.Errorf("%w: %s", ErrNoProfiledMethod, iface.Name)
	}
	if any(delegate) == nil {
		return zero, fmt.Errorf("%w: %s", ErrNilDelegate, iface.Name)
	}
	if iface.Decorate == nil {
		return zero, fmt.Errorf("%w: %s", ErrNoDecorator, iface.Name)
	}

	ic := &Interceptor{
		iface:    iface.Name,
		profiled: profiled,
		clock:    p.clock,
		state:    p.state,
	}
	return iface.Decorate(delegate, ic), nil
}

// Entries returns a sorted snapshot of the accumulated timing.
func (p *Profiler) Entries() []model.ProfileEntry {
	return p.state.Entries()
}

// WriteData writes one run section to w: the "Run at" header, one line per
// profiled method, and a blank separator line.
func (p *Profiler) WriteData(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Run at %s\n", p.startTime.Format(runHeaderFormat)); err != nil {
		return err
	}
	if err := p.state.Write(w); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// WriteFile appends one run section to the file at path, creating the file
// and its parent directories if needed. Existing content is preserved.
// A failed write leaves the profiling state untouched, so the caller may retry.
func (p *Profiler) WriteFile(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create profile directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return fmt.Errorf("failed to open profile file: %w", err)
	}

	if err := p.WriteData(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write profile data: %w", err)
	}
	return f.Close()
}

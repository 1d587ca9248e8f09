package profiler

import "errors"

var (
	// ErrNoProfiledMethod is returned by Wrap when the interface descriptor
	// does not mark any method as profiled. Wrapping such an interface would
	// only add indirection, so it is treated as a configuration error.
	ErrNoProfiledMethod = errors.New("interface has no profiled method")

	// ErrNilDelegate is returned by Wrap when the delegate is nil.
	ErrNilDelegate = errors.New("delegate must not be nil")

	// ErrNoDecorator is returned by Wrap when the descriptor has no Decorate function.
	ErrNoDecorator = errors.New("interface descriptor has no decorator")
)

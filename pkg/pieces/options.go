package pieces

import "log/slog"

// Recorder observes presence transitions. Implementations must be cheap; they
// run inline with every mutation.
type Recorder interface {
	// Added is called when index becomes present.
	Added(index int)
	// Removed is called when index becomes absent.
	Removed(index int)
	// Resolved is called when a pending wait on index is resolved.
	Resolved(index int)
}

type nopRecorder struct{}

func (nopRecorder) Added(int)    {}
func (nopRecorder) Removed(int)  {}
func (nopRecorder) Resolved(int) {}

type options struct {
	logger   *slog.Logger
	recorder Recorder
}

// Option configures a Set, Map or Table.
type Option func(*options)

// WithLogger sets the logger used for Debug traces of merges, splits,
// resizes and ignored out-of-range indices.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder sets the observer of presence transitions.
func WithRecorder(recorder Recorder) Option {
	return func(o *options) {
		if recorder != nil {
			o.recorder = recorder
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:   slog.New(slog.DiscardHandler),
		recorder: nopRecorder{},
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

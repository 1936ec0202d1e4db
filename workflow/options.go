package workflow

import "log/slog"

// Options contains configuration for compiled engines.
type Options struct {
	// Logger receives run and node logs. Defaults to slog.Default().
	Logger *slog.Logger

	observers []Observer
}

// Option is a functional option for engine configuration.
type Option func(*Options)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// WithObserver registers an observer. Observers run in registration order.
func WithObserver(obs Observer) Option {
	return func(o *Options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// ApplyOptions applies functional options over the defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{Logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/spetersoncode/novelreview/workflow"
)

// Options configures a Pipeline.
type Options struct {
	ScoreThreshold           float64
	GenreConfidenceThreshold float64
	Logger                   *slog.Logger
	Observers                []workflow.Observer
}

// Option is a functional option for pipeline configuration.
type Option func(*Options)

// WithScoreThreshold sets the score gate threshold (0 to 100).
func WithScoreThreshold(t float64) Option {
	return func(o *Options) {
		o.ScoreThreshold = t
	}
}

// WithGenreConfidenceThreshold sets the low-confidence genre threshold (0 to 1).
func WithGenreConfidenceThreshold(t float64) Option {
	return func(o *Options) {
		o.GenreConfidenceThreshold = t
	}
}

// WithLogger sets the logger for runs.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// WithObserver registers an observer for every run.
func WithObserver(obs workflow.Observer) Option {
	return func(o *Options) {
		o.Observers = append(o.Observers, obs)
	}
}

// ApplyOptions applies functional options over the defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		ScoreThreshold:           DefaultScoreThreshold,
		GenreConfidenceThreshold: DefaultGenreConfidenceThreshold,
		Logger:                   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Options) validate() error {
	if o.ScoreThreshold < 0 || o.ScoreThreshold > 100 {
		return fmt.Errorf("pipeline: score threshold %v outside [0, 100]", o.ScoreThreshold)
	}
	if o.GenreConfidenceThreshold < 0 || o.GenreConfidenceThreshold > 1 {
		return fmt.Errorf("pipeline: genre confidence threshold %v outside [0, 1]", o.GenreConfidenceThreshold)
	}
	return nil
}

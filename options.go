package novelreview

// ResponseFormat selects the shape of the model output.
type ResponseFormat string

const (
	// ResponseFormatText is free-form text (the provider default).
	ResponseFormatText ResponseFormat = ""

	// ResponseFormatJSON asks the provider for a JSON object.
	ResponseFormatJSON ResponseFormat = "json"
)

// Options contains configuration for a chat request.
type Options struct {
	Model          string
	MaxTokens      int
	Temperature    *float64
	ResponseFormat ResponseFormat
}

// Option is a functional option for configuring chat requests.
type Option func(*Options)

// WithModel sets the model to use for the request.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithTemperature sets the sampling temperature (0.0 to 2.0).
func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.Temperature = &t
	}
}

// WithJSONResponse requests a JSON object response.
func WithJSONResponse() Option {
	return func(o *Options) {
		o.ResponseFormat = ResponseFormatJSON
	}
}

// ApplyOptions applies functional options to an Options struct.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spetersoncode/novelreview"
	"github.com/spetersoncode/novelreview/internal/provider/anthropic"
	"github.com/spetersoncode/novelreview/internal/provider/google"
	"github.com/spetersoncode/novelreview/internal/provider/openai"
	"github.com/spetersoncode/novelreview/internal/retry"
	"golang.org/x/time/rate"
)

// APIKeys holds API keys for different providers.
// Only configure keys for providers you intend to use.
type APIKeys struct {
	Anthropic string
	OpenAI    string
	Google    string
}

// RetryConfig holds retry configuration parameters.
type RetryConfig = retry.Config

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig { return retry.DefaultConfig() }

// DisabledRetryConfig returns a configuration that makes a single attempt.
func DisabledRetryConfig() RetryConfig { return retry.Disabled() }

// Config holds configuration for creating a client.
type Config struct {
	// Provider selects the backend. Defaults to OpenAI.
	Provider novelreview.Provider

	// APIKeys contains authentication keys for each provider.
	APIKeys APIKeys

	// Model is the default model. Empty means the provider's default.
	Model string

	// BaseURL overrides the API endpoint for OpenAI and Anthropic, for
	// compatible gateways and local servers.
	BaseURL string

	// RetryConfig configures retry behavior for transient errors.
	// If nil, DefaultRetryConfig is used.
	RetryConfig *RetryConfig

	// RequestsPerMinute caps the request rate across all goroutines.
	// Zero disables rate limiting.
	RequestsPerMinute float64

	// Burst is the rate limiter bucket size. Defaults to 1.
	Burst int

	// Timeout bounds each attempt. Zero means no per-attempt timeout.
	Timeout time.Duration
}

// ErrMissingAPIKey is returned when the selected provider has no API key.
type ErrMissingAPIKey struct {
	Provider string
}

func (e *ErrMissingAPIKey) Error() string {
	return fmt.Sprintf("no API key configured for %s", e.Provider)
}

// ErrUnsupportedProvider is returned for an unknown Config.Provider.
type ErrUnsupportedProvider struct {
	Provider string
}

func (e *ErrUnsupportedProvider) Error() string {
	return fmt.Sprintf("unsupported provider: %q", e.Provider)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger used for request and retry logging.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDefaultChatOptions sets default options for all chat requests.
// Per-request options override these defaults.
func WithDefaultChatOptions(opts ...novelreview.Option) ClientOption {
	return func(c *Client) {
		c.defaultChatOpts = append(c.defaultChatOpts, opts...)
	}
}

// WithChatProvider replaces the lazily built SDK provider. Retry, rate
// limiting and timeouts still apply.
func WithChatProvider(p novelreview.ChatProvider) ClientOption {
	return func(c *Client) {
		c.chat = p
	}
}

// Client is a retrying, rate-limited ChatProvider over one backend.
// The backend is built on first use. A Client is safe for concurrent use.
type Client struct {
	provider        novelreview.Provider
	apiKeys         APIKeys
	model           string
	baseURL         string
	retryConfig     retry.Config
	timeout         time.Duration
	limiter         *rate.Limiter
	logger          *slog.Logger
	defaultChatOpts []novelreview.Option

	mu      sync.RWMutex
	chat    novelreview.ChatProvider
	initErr error
	usage   novelreview.Usage
}

// New creates a client with the given configuration.
func New(cfg Config, opts ...ClientOption) *Client {
	retryConfig := retry.DefaultConfig()
	if cfg.RetryConfig != nil {
		retryConfig = *cfg.RetryConfig
	}
	provider := cfg.Provider
	if provider == "" {
		provider = novelreview.ProviderOpenAI
	}

	c := &Client{
		provider:    provider,
		apiKeys:     cfg.APIKeys,
		model:       cfg.Model,
		baseURL:     cfg.BaseURL,
		retryConfig: retryConfig,
		timeout:     cfg.Timeout,
		logger:      slog.Default(),
	}
	if cfg.RequestsPerMinute > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60.0), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("provider", c.provider.String())
	return c
}

// Provider reports the configured backend.
func (c *Client) Provider() novelreview.Provider { return c.provider }

// Usage returns the token usage accumulated over successful calls.
func (c *Client) Usage() novelreview.Usage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.usage
}

// chatProvider returns the backend, initializing it if needed.
func (c *Client) chatProvider(ctx context.Context) (novelreview.ChatProvider, error) {
	c.mu.RLock()
	if c.chat != nil || c.initErr != nil {
		defer c.mu.RUnlock()
		return c.chat, c.initErr
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if c.chat != nil || c.initErr != nil {
		return c.chat, c.initErr
	}

	c.chat, c.initErr = c.newProvider(ctx)
	return c.chat, c.initErr
}

func (c *Client) newProvider(ctx context.Context) (novelreview.ChatProvider, error) {
	switch c.provider {
	case novelreview.ProviderOpenAI:
		if c.apiKeys.OpenAI == "" {
			return nil, &ErrMissingAPIKey{Provider: "openai"}
		}
		opts := []openai.ClientOption{openai.WithModel(c.model)}
		if c.baseURL != "" {
			opts = append(opts, openai.WithBaseURL(c.baseURL))
		}
		return openai.New(c.apiKeys.OpenAI, opts...), nil
	case novelreview.ProviderAnthropic:
		if c.apiKeys.Anthropic == "" {
			return nil, &ErrMissingAPIKey{Provider: "anthropic"}
		}
		opts := []anthropic.ClientOption{anthropic.WithModel(c.model)}
		if c.baseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(c.baseURL))
		}
		return anthropic.New(c.apiKeys.Anthropic, opts...), nil
	case novelreview.ProviderGoogle:
		if c.apiKeys.Google == "" {
			return nil, &ErrMissingAPIKey{Provider: "google"}
		}
		client, err := google.New(ctx, c.apiKeys.Google, google.WithModel(c.model))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google client: %w", err)
		}
		return client, nil
	default:
		return nil, &ErrUnsupportedProvider{Provider: c.provider.String()}
	}
}

// Chat sends a conversation and returns a complete response. Each attempt
// waits for the rate limiter and runs under the configured timeout;
// transient failures are retried.
func (c *Client) Chat(ctx context.Context, messages []novelreview.Message, opts ...novelreview.Option) (*novelreview.Response, error) {
	chat, err := c.chatProvider(ctx)
	if err != nil {
		return nil, err
	}

	// Prepend default options so per-request options override them
	opts = append(append([]novelreview.Option{}, c.defaultChatOpts...), opts...)

	start := time.Now()
	resp, err := retry.DoObserved(ctx, c.retryConfig, c.logRetry, func() (*novelreview.Response, error) {
		return c.attempt(ctx, chat, messages, opts)
	})
	if err != nil {
		c.logger.WarnContext(ctx, "chat request failed", "duration", time.Since(start), "error", err)
		return nil, err
	}

	c.mu.Lock()
	c.usage = c.usage.Add(resp.Usage)
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "chat request complete",
		"duration", time.Since(start),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)
	return resp, nil
}

func (c *Client) attempt(ctx context.Context, chat novelreview.ChatProvider, messages []novelreview.Message, opts []novelreview.Option) (*novelreview.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return chat.Chat(ctx, messages, opts...)
}

func (c *Client) logRetry(ev retry.Event) {
	switch ev.Type {
	case retry.EventRetrying:
		c.logger.Info("retrying chat request",
			"attempt", ev.Attempt,
			"max_attempts", ev.MaxAttempts,
			"delay", ev.Delay,
			"error", ev.Err,
		)
	case retry.EventExhausted:
		c.logger.Warn("chat retries exhausted", "attempts", ev.Attempt, "error", ev.Err)
	}
}

var _ novelreview.ChatProvider = (*Client)(nil)

// Package openai adapts the OpenAI chat completions API to novelreview.ChatProvider.
package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spetersoncode/novelreview"
)

// DefaultChatModel is used when neither the client nor the request names a model.
const DefaultChatModel = "gpt-4o-mini"

// Client wraps the OpenAI SDK to implement novelreview.ChatProvider.
type Client struct {
	client  *openai.Client
	model   string
	baseURL string
}

// New creates a new OpenAI client with the given API key.
// SDK-level retries are disabled; callers retry through internal/retry.
func New(apiKey string, opts ...ClientOption) *Client {
	c := &Client{model: DefaultChatModel}
	for _, opt := range opts {
		opt(c)
	}

	sdkOpts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if c.baseURL != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(c.baseURL))
	}
	client := openai.NewClient(sdkOpts...)
	c.client = &client
	return c
}

// ClientOption configures the OpenAI client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []novelreview.Message, opts ...novelreview.Option) (*novelreview.Response, error) {
	params := c.buildParams(messages, novelreview.ApplyOptions(opts...))

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, novelreview.NewTransientError("openai: response had no choices", 0, nil)
	}

	return &novelreview.Response{
		Content:      resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: novelreview.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

func (c *Client) buildParams(messages []novelreview.Message, options *novelreview.Options) openai.ChatCompletionNewParams {
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: convertMessages(messages),
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(options.MaxTokens))
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
	}
	if options.ResponseFormat == novelreview.ResponseFormatJSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		}
	}
	return params
}

func convertMessages(messages []novelreview.Message) []openai.ChatCompletionMessageParamUnion {
	var result []openai.ChatCompletionMessageParamUnion
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case novelreview.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case novelreview.RoleAssistant:
			result = append(result, openai.AssistantMessage(msg.Content))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}

var _ novelreview.ChatProvider = (*Client)(nil)

// Package anthropic adapts the Anthropic Messages API to novelreview.ChatProvider.
//
// Anthropic has no native JSON mode, so JSON requests force a single
// "json_response" tool call and return its input as the response content.
package anthropic

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spetersoncode/novelreview"
)

// DefaultChatModel is used when neither the client nor the request names a model.
const DefaultChatModel = "claude-sonnet-4-5"

const (
	defaultMaxTokens     = 4096
	jsonResponseToolName = "json_response"
)

// Client wraps the Anthropic SDK to implement novelreview.ChatProvider.
type Client struct {
	client  *anthropic.Client
	model   string
	baseURL string
}

// New creates a new Anthropic client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	c := &Client{model: DefaultChatModel}
	for _, opt := range opts {
		opt(c)
	}

	sdkOpts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if c.baseURL != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(c.baseURL))
	}
	client := anthropic.NewClient(sdkOpts...)
	c.client = &client
	return c
}

// ClientOption configures the Anthropic client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []novelreview.Message, opts ...novelreview.Option) (*novelreview.Response, error) {
	options := novelreview.ApplyOptions(opts...)
	params := c.buildParams(messages, options)

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	jsonMode := options.ResponseFormat == novelreview.ResponseFormatJSON
	var content strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			content.WriteString(block.Text)
		case "tool_use":
			if jsonMode && block.Name == jsonResponseToolName {
				content.Reset()
				content.Write(block.Input)
			}
		}
	}

	return &novelreview.Response{
		Content:      content.String(),
		FinishReason: string(resp.StopReason),
		Usage: novelreview.Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}

func (c *Client) buildParams(messages []novelreview.Message, options *novelreview.Options) anthropic.MessageNewParams {
	model := c.model
	if options.Model != "" {
		model = options.Model
	}
	maxTokens := int64(defaultMaxTokens)
	if options.MaxTokens > 0 {
		maxTokens = int64(options.MaxTokens)
	}

	msgs, system := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if options.Temperature != nil {
		params.Temperature = anthropic.Float(*options.Temperature)
	}
	if options.ResponseFormat == novelreview.ResponseFormatJSON {
		params.Tools = []anthropic.ToolUnionParam{{
			OfTool: &anthropic.ToolParam{
				Name:        jsonResponseToolName,
				Description: anthropic.String("Output the response as structured JSON"),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]any{},
				},
			},
		}}
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: jsonResponseToolName},
		}
	}
	return params
}

// convertMessages splits system prompts out of the conversation.
// Empty messages are dropped; the API rejects empty text blocks.
func convertMessages(messages []novelreview.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var result []anthropic.MessageParam
	var system []anthropic.TextBlockParam

	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case novelreview.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case novelreview.RoleAssistant:
			result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return result, system
}

var _ novelreview.ChatProvider = (*Client)(nil)

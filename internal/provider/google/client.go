// Package google adapts the Gemini API to novelreview.ChatProvider.
package google

import (
	"context"
	"strings"

	"github.com/spetersoncode/novelreview"
	"google.golang.org/genai"
)

// DefaultChatModel is used when neither the client nor the request names a model.
const DefaultChatModel = "gemini-2.5-flash"

// Client wraps the Google GenAI SDK to implement novelreview.ChatProvider.
type Client struct {
	client *genai.Client
	model  string
}

// New creates a new Google GenAI client with the given API key.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	c := &Client{
		client: client,
		model:  DefaultChatModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ClientOption configures the Google client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []novelreview.Message, opts ...novelreview.Option) (*novelreview.Response, error) {
	options := novelreview.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	contents, system := convertMessages(messages)
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, buildConfig(options, system))
	if err != nil {
		return nil, wrapError(err)
	}

	var content strings.Builder
	finishReason := ""
	if len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]
		finishReason = string(cand.FinishReason)
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				content.WriteString(part.Text)
			}
		}
	}

	usage := novelreview.Usage{}
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &novelreview.Response{
		Content:      content.String(),
		FinishReason: finishReason,
		Usage:        usage,
	}, nil
}

func buildConfig(options *novelreview.Options, system *genai.Content) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{SystemInstruction: system}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Temperature != nil {
		temp := float32(*options.Temperature)
		config.Temperature = &temp
	}
	if options.ResponseFormat == novelreview.ResponseFormatJSON {
		config.ResponseMIMEType = "application/json"
	}
	return config
}

// convertMessages maps the conversation onto Gemini contents. System
// messages become the request's system instruction.
func convertMessages(messages []novelreview.Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var system *genai.Content

	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		part := &genai.Part{Text: msg.Content}
		switch msg.Role {
		case novelreview.RoleSystem:
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, part)
		case novelreview.RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{part}})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{part}})
		}
	}
	return contents, system
}

var _ novelreview.ChatProvider = (*Client)(nil)

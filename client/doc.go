// Package client provides the chat client used by the manuscript analyzer.
//
// A Client wraps one provider backend (OpenAI, Anthropic or Google) and adds:
//
//   - Lazy initialization: the SDK client is built on the first request
//   - Automatic retries: exponential backoff for transient errors, honoring Retry-After
//   - Rate limiting: a shared token bucket sized in requests per minute
//   - Per-attempt timeouts
//   - Token accounting across calls
//
// # Basic Usage
//
//	c := client.New(client.Config{
//	    Provider: novelreview.ProviderOpenAI,
//	    APIKeys:  client.APIKeys{OpenAI: os.Getenv("OPENAI_API_KEY")},
//	    Model:    "gpt-4o-mini",
//	    RequestsPerMinute: 60,
//	})
//
//	resp, err := c.Chat(ctx, []novelreview.Message{
//	    novelreview.UserMessage("Summarize this chapter."),
//	}, novelreview.WithJSONResponse())
//
// # Retry Configuration
//
//	cfg := client.DefaultRetryConfig()
//	cfg.MaxAttempts = 6
//	c := client.New(client.Config{RetryConfig: &cfg})
//
// Pass client.DisabledRetryConfig() to make a single attempt.
package client

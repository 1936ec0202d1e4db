package openai

import (
	"errors"

	"github.com/openai/openai-go"
	"github.com/spetersoncode/novelreview/internal/provider"
)

// wrapError categorizes an OpenAI SDK error, keeping its Retry-After hint.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		// network errors are left to the retry heuristics
		return err
	}
	return provider.WrapStatus(err, apiErr.StatusCode, provider.ParseRetryAfter(apiErr.Response))
}

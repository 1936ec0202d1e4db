package anthropic

import (
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spetersoncode/novelreview/internal/provider"
)

func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	return provider.WrapStatus(err, apiErr.StatusCode, provider.ParseRetryAfter(apiErr.Response))
}

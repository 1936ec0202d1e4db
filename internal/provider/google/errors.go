package google

import (
	"errors"

	"github.com/spetersoncode/novelreview/internal/provider"
	"google.golang.org/genai"
)

// wrapError categorizes a GenAI error by status code. genai.APIError does
// not expose response headers, so no Retry-After hint is available.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	return provider.WrapStatus(err, apiErr.Code, 0)
}

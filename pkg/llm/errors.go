package llm

import (
	"context"
	"errors"
	"net"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyCompletion indicates the provider returned no usable text.
var ErrEmptyCompletion = errors.New("provider returned empty completion")

// ErrProviderUnavailable indicates the configured provider cannot serve
// requests (missing SDK support or configuration).
var ErrProviderUnavailable = errors.New("provider unavailable")

// retryableStatus covers rate limiting and server unavailability.
func retryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// IsTransient reports whether a failed call is worth retrying: timeouts,
// connection failures, and rate-limit or server-busy responses. Anything else
// (including malformed structured output) fails the call immediately.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		// Status 0 means the request never got a response.
		return reqErr.HTTPStatusCode == 0 || retryableStatus(reqErr.HTTPStatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return false
}

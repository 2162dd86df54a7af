package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

// TransportError is returned when a model call could not be completed.
type TransportError struct {
	Provider  string
	Attempts  int
	Retryable bool
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport failed after %d attempt(s): %v", e.Provider, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRetryable classifies a transport failure. Timeouts of a single call,
// rate limits, conflicts and server errors are retryable; cancellation,
// authentication and bad requests are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return retryableStatus(anthropicErr.StatusCode)
	}
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return retryableStatus(openaiErr.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"econnreset", "etimedout", "connection reset", "connection refused",
		"rate limit", "overloaded", "429", "500", "502", "503", "504", "529",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func retryableStatus(code int) bool {
	switch {
	case code == 408, code == 409, code == 429:
		return true
	case code >= 500:
		return true
	default:
		return false
	}
}

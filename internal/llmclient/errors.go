// File: internal/llmclient/errors.go
package llmclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StatusError carries a provider HTTP failure through the retry machinery
// so callers can distinguish throttling from hard quota exhaustion.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm provider error: status %d, body: %s", e.StatusCode, e.Body)
}

// quotaMarkers are the substrings Gemini uses in RESOURCE_EXHAUSTED bodies
// when the project's quota is spent, as opposed to per-minute throttling.
var quotaMarkers = []string{
	"RESOURCE_EXHAUSTED",
	"quota",
	"Quota",
}

// IsQuotaExhausted reports whether err is a provider response indicating the
// account's quota is spent. Retrying cannot help; the task must end.
func IsQuotaExhausted(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	if se.StatusCode != http.StatusTooManyRequests && se.StatusCode != http.StatusForbidden {
		return false
	}
	for _, marker := range quotaMarkers {
		if strings.Contains(se.Body, marker) {
			return true
		}
	}
	return false
}

// IsRateLimited reports whether err is per-request throttling (HTTP 429)
// that was not resolved within the client's retry budget.
func IsRateLimited(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusTooManyRequests
}

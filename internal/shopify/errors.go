package shopify

import (
	"fmt"
	"strings"
)

// TransportError is an HTTP-level failure: connection error, non-2xx status,
// or an unreadable response body.
type TransportError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("shopify: http %d: %s", e.Status, snippet(e.Body))
	}
	return fmt.Sprintf("shopify: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ThrottledError is returned when the API rejects a request for exceeding its
// cost budget. Callers retry it under the configured policy.
type ThrottledError struct {
	Message string
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("shopify: throttled: %s", e.Message)
}

// RequestError wraps non-throttle GraphQL errors. These are not retried.
type RequestError struct {
	Messages []string
}

func (e *RequestError) Error() string {
	return "shopify: graphql: " + strings.Join(e.Messages, "; ")
}

// UserError is one validation failure reported by a mutation payload.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// UserErrors is the userErrors list of a mutation payload, as an error.
type UserErrors []UserError

func (e UserErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, ue := range e {
		if len(ue.Field) > 0 {
			parts = append(parts, strings.Join(ue.Field, ".")+": "+ue.Message)
		} else {
			parts = append(parts, ue.Message)
		}
	}
	return "shopify: " + strings.Join(parts, "; ")
}

// BulkOperationError is a bulk operation that reached a terminal state other
// than COMPLETED, or completed without producing a result file.
type BulkOperationError struct {
	Status string
	Code   string
}

func (e *BulkOperationError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("shopify: bulk operation %s (%s)", strings.ToLower(e.Status), e.Code)
	}
	return fmt.Sprintf("shopify: bulk operation %s", strings.ToLower(e.Status))
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

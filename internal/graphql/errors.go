package graphql

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// APIError is returned when the endpoint answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("consolidate api: HTTP %d: %s", e.StatusCode, body)
}

// GraphQLError is returned when the response carries a non-empty errors
// array. Raw keeps the original array for diagnostics.
type GraphQLError struct {
	Messages []string
	Raw      json.RawMessage
}

func (e *GraphQLError) Error() string {
	if len(e.Messages) == 0 {
		return "GraphQL error"
	}
	return strings.Join(e.Messages, "; ")
}

// IsUnauthorized reports whether err is a 401 or 403 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}

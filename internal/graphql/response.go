package graphql

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Response is a successful GraphQL response body.
type Response struct {
	raw []byte
}

// NewResponse wraps a raw response body. Mainly useful in tests of code that
// consumes responses.
func NewResponse(raw []byte) *Response {
	return &Response{raw: raw}
}

// Raw returns the full response body.
func (r *Response) Raw() json.RawMessage { return json.RawMessage(r.raw) }

// Get returns the value at a gjson path such as "data.dataEntry.id".
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.raw, path)
}

// RawAt returns the JSON at path, or an error when it is missing or null.
func (r *Response) RawAt(path string) (json.RawMessage, error) {
	v := r.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return nil, fmt.Errorf("graphql response has no %s", path)
	}
	return json.RawMessage(v.Raw), nil
}

// Decode unmarshals the JSON at path into out.
func (r *Response) Decode(path string, out any) error {
	raw, err := r.RawAt(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Items returns each element of the array at path as raw JSON. A missing
// or null path yields no items.
func (r *Response) Items(path string) []json.RawMessage {
	v := r.Get(path)
	if !v.IsArray() {
		return nil
	}
	arr := v.Array()
	out := make([]json.RawMessage, 0, len(arr))
	for _, item := range arr {
		out = append(out, json.RawMessage(item.Raw))
	}
	return out
}

package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mattjoyce/consolidate-bridge/internal/graphql"
)

// ErrUnsupportedOperation is returned for unknown resource/operation pairs.
var ErrUnsupportedOperation = errors.New("operation not supported")

// Doer runs a GraphQL request. *graphql.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, req graphql.Request) (*graphql.Response, error)
}

type handler func(ctx context.Context, params json.RawMessage) ([]json.RawMessage, error)

// Router dispatches a resource/operation pair to its GraphQL operation.
type Router struct {
	client   Doer
	logger   *slog.Logger
	handlers map[string]handler
}

type Option func(*Router)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New builds a Router with every supported operation registered.
func New(client Doer, opts ...Option) *Router {
	r := &Router{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.handlers = map[string]handler{
		key("dataEntry", "create"):    r.createDataEntry,
		key("dataEntry", "update"):    r.updateDataEntry,
		key("dataEntry", "delete"):    r.deleteDataEntry,
		key("dataEntry", "getById"):   r.getDataEntry,
		key("dataEntry", "search"):    r.searchDataEntries,
		key("email", "send"):          r.sendEmail,
		key("appointment", "create"):  r.createAppointment,
		key("appointment", "update"):  r.updateAppointment,
		key("appointment", "delete"):  r.deleteAppointment,
		key("customQuery", "execute"): r.customQuery,
	}
	return r
}

func key(resource, operation string) string {
	return resource + "." + operation
}

// Operations lists the supported pairs as "resource.operation", sorted.
func (r *Router) Operations() []string {
	out := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Execute runs one operation. params is the operation's JSON parameter
// object; the result is one JSON document per output item.
func (r *Router) Execute(ctx context.Context, resource, operation string, params json.RawMessage) ([]json.RawMessage, error) {
	h, ok := r.handlers[key(resource, operation)]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnsupportedOperation, resource, operation)
	}

	r.logger.Debug("executing operation", "resource", resource, "operation", operation)

	items, err := h(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", resource, operation, err)
	}
	return items, nil
}

// decodeParams strictly decodes params into out. Empty params decode to
// the zero value.
func decodeParams(params json.RawMessage, out any) error {
	if len(bytes.TrimSpace(params)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(params))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

func (r *Router) do(ctx context.Context, query string, variables map[string]any) (*graphql.Response, error) {
	return r.client.Do(ctx, graphql.Request{Query: query, Variables: variables})
}

// items splits an array result into one item per element. A single object
// is one item.
func items(raw json.RawMessage) []json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []json.RawMessage{raw}
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(trimmed, &arr); err != nil {
		return []json.RawMessage{raw}
	}
	return arr
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

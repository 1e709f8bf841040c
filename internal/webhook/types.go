package webhook

import (
	"context"

	"github.com/mattjoyce/consolidate-bridge/internal/queue"
)

// DeliveryQueuer persists verified deliveries.
type DeliveryQueuer interface {
	Enqueue(ctx context.Context, req queue.EnqueueRequest) (queue.EnqueueResult, error)
}

// SecretSource resolves the signing secret of a named subscription.
// An empty secret with a nil error means the subscription has not been
// created yet.
type SecretSource interface {
	Secret(ctx context.Context, name string) (string, error)
}

// Config holds webhook server configuration.
type Config struct {
	Listen    string           `yaml:"listen"`
	Endpoints []EndpointConfig `yaml:"endpoints"`
}

// EndpointConfig defines a single receiving endpoint.
type EndpointConfig struct {
	// Path is the URL path, e.g. "/webhooks/contacts".
	Path string `yaml:"path"`

	// Subscription names the stored subscription whose secret signs this
	// endpoint's deliveries. Used when Secret is empty.
	Subscription string `yaml:"subscription"`

	// Secret is a static "whsec_" secret, resolved from secret_ref if set.
	Secret string `yaml:"secret,omitempty"`

	// MaxBodySize in bytes (default: 1MB).
	MaxBodySize int64 `yaml:"max_body_size,omitempty"`
}

// AcceptedResponse is the JSON body for accepted deliveries.
type AcceptedResponse struct {
	DeliveryID string `json:"delivery_id"`
	Duplicate  bool   `json:"duplicate,omitempty"`
}

// ErrorResponse is the JSON response for webhook errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

const DefaultMaxBodySize = 1048576 // 1 MB

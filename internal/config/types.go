package config

import "time"

// Config represents the complete consolidate-bridge configuration.
type Config struct {
	Service     ServiceConfig     `yaml:"service"`
	State       StateConfig       `yaml:"state"`
	Consolidate ConsolidateConfig `yaml:"consolidate"`
	Webhooks    *WebhooksConfig   `yaml:"webhooks,omitempty"`

	// Tokens holds named secrets referenced by *_ref fields.
	Tokens map[string]string `yaml:"tokens,omitempty"`

	// SourcePath is the absolute path of the loaded config file.
	SourcePath string `yaml:"-"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"`
}

// StateConfig defines state storage settings.
type StateConfig struct {
	Path string `yaml:"path"`
}

// ConsolidateConfig points at the Consolidate GraphQL API.
type ConsolidateConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key,omitempty"`
	APIKeyRef string        `yaml:"api_key_ref,omitempty"`
	Timeout   time.Duration `yaml:"timeout"`
}

// WebhooksConfig defines webhook listener settings.
type WebhooksConfig struct {
	Listen string `yaml:"listen"`

	// PublicURL is the externally reachable base URL registered with
	// Consolidate when subscriptions are created.
	PublicURL string            `yaml:"public_url,omitempty"`
	Endpoints []WebhookEndpoint `yaml:"endpoints"`
}

// WebhookEndpoint defines a single webhook endpoint.
type WebhookEndpoint struct {
	Path         string   `yaml:"path"`
	Subscription string   `yaml:"subscription,omitempty"`
	Events       []string `yaml:"events,omitempty"`
	Secret       string   `yaml:"secret,omitempty"`
	SecretRef    string   `yaml:"secret_ref,omitempty"`
	MaxBodySize  string   `yaml:"max_body_size,omitempty"`
}

// APIKeyValue returns the API key, resolving api_key_ref from tokens.
func (c *Config) APIKeyValue() string {
	if c.Consolidate.APIKeyRef != "" {
		return c.Tokens[c.Consolidate.APIKeyRef]
	}
	return c.Consolidate.APIKey
}

// Endpoint returns the webhook endpoint bound to a subscription name.
func (c *Config) Endpoint(subscription string) (WebhookEndpoint, bool) {
	if c.Webhooks == nil {
		return WebhookEndpoint{}, false
	}
	for _, ep := range c.Webhooks.Endpoints {
		if ep.Subscription == subscription {
			return ep, true
		}
	}
	return WebhookEndpoint{}, false
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:     "consolidate-bridge",
			LogLevel: "info",
		},
		State: StateConfig{
			Path: "./data/state.db",
		},
		Consolidate: ConsolidateConfig{
			Timeout: 30 * time.Second,
		},
		Tokens: make(map[string]string),
	}
}

// DefaultWebhookListen is used when a webhooks section omits listen.
const DefaultWebhookListen = "127.0.0.1:8091"

package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const redacted = "********"

// GetPath retrieves a value from the configuration using a dot-notation
// path such as "consolidate.base_url". Secrets are redacted.
func (c *Config) GetPath(path string) (any, error) {
	data, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return getValue(m, path)
}

// Redacted returns a copy with api keys, static secrets and tokens masked.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Consolidate.APIKey != "" {
		out.Consolidate.APIKey = redacted
	}
	if c.Tokens != nil {
		out.Tokens = make(map[string]string, len(c.Tokens))
		for k := range c.Tokens {
			out.Tokens[k] = redacted
		}
	}
	if c.Webhooks != nil {
		wh := *c.Webhooks
		wh.Endpoints = make([]WebhookEndpoint, len(c.Webhooks.Endpoints))
		for i, ep := range c.Webhooks.Endpoints {
			if ep.Secret != "" {
				ep.Secret = redacted
			}
			wh.Endpoints[i] = ep
		}
		out.Webhooks = &wh
	}
	return &out
}

func getValue(m map[string]any, path string) (any, error) {
	var current any = m

	for _, part := range strings.Split(path, ".") {
		if part == "" {
			continue
		}

		m, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("path %q breaks at %q (not a map)", path, part)
		}

		val, exists := m[part]
		if !exists {
			return nil, fmt.Errorf("path %q: key %q not found", path, part)
		}
		current = val
	}

	return current, nil
}

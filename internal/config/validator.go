package config

import (
	"fmt"
	"strings"
)

// validateReferences checks webhook endpoints and *_ref fields against tokens.
func validateReferences(cfg *Config) error {
	if ref := cfg.Consolidate.APIKeyRef; ref != "" {
		if _, exists := cfg.Tokens[ref]; !exists {
			return fmt.Errorf("consolidate.api_key_ref %q not found in tokens", ref)
		}
	}

	return validateWebhooks(cfg)
}

// validateWebhooks checks that every endpoint has a unique path and a way
// to find its secret.
func validateWebhooks(cfg *Config) error {
	if cfg.Webhooks == nil {
		return nil
	}

	paths := make(map[string]bool)
	subscriptions := make(map[string]bool)
	for i, endpoint := range cfg.Webhooks.Endpoints {
		if endpoint.Path == "" || !strings.HasPrefix(endpoint.Path, "/") {
			return fmt.Errorf("webhook[%d]: path must start with '/' (got %q)", i, endpoint.Path)
		}
		if endpoint.Path == "/healthz" {
			return fmt.Errorf("webhook[%d]: path /healthz is reserved", i)
		}
		if paths[endpoint.Path] {
			return fmt.Errorf("webhook[%d] (%s): duplicate path", i, endpoint.Path)
		}
		paths[endpoint.Path] = true

		if endpoint.Subscription == "" && endpoint.Secret == "" && endpoint.SecretRef == "" {
			return fmt.Errorf("webhook[%d] (%s): one of 'subscription', 'secret' or 'secret_ref' is required",
				i, endpoint.Path)
		}

		if endpoint.Subscription != "" {
			if subscriptions[endpoint.Subscription] {
				return fmt.Errorf("webhook[%d] (%s): subscription %q is bound to more than one endpoint",
					i, endpoint.Path, endpoint.Subscription)
			}
			subscriptions[endpoint.Subscription] = true
		}

		if endpoint.SecretRef != "" {
			if _, exists := cfg.Tokens[endpoint.SecretRef]; !exists {
				return fmt.Errorf("webhook[%d] (%s): secret_ref %q not found in tokens",
					i, endpoint.Path, endpoint.SecretRef)
			}
		}

		if err := checkUnresolved(fmt.Sprintf("webhook[%d].secret", i), endpoint.Secret); err != nil {
			return err
		}
	}

	return nil
}

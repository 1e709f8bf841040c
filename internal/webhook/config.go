package webhook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattjoyce/consolidate-bridge/internal/config"
)

// FromGlobalConfig converts config.WebhooksConfig to webhook.Config.
// Static secrets are resolved from tokens here; subscription-backed
// endpoints resolve theirs per request.
func FromGlobalConfig(wc *config.WebhooksConfig, tokens map[string]string) (Config, error) {
	if wc == nil {
		return Config{}, fmt.Errorf("webhooks config is nil")
	}

	cfg := Config{
		Listen:    wc.Listen,
		Endpoints: make([]EndpointConfig, len(wc.Endpoints)),
	}

	for i, ep := range wc.Endpoints {
		secret := ep.Secret
		if ep.SecretRef != "" {
			resolved, ok := tokens[ep.SecretRef]
			if !ok {
				return Config{}, fmt.Errorf("webhook endpoint %q: secret_ref %q not found in tokens", ep.Path, ep.SecretRef)
			}
			secret = resolved
		}

		if secret == "" && ep.Subscription == "" {
			return Config{}, fmt.Errorf("webhook endpoint %q: no subscription, secret or secret_ref configured", ep.Path)
		}

		if secret != "" {
			if _, err := NewVerifier(secret); err != nil {
				return Config{}, fmt.Errorf("webhook endpoint %q: %w", ep.Path, err)
			}
		}

		maxBodySize, err := parseMaxBodySize(ep.MaxBodySize)
		if err != nil {
			return Config{}, fmt.Errorf("webhook endpoint %q: invalid max_body_size %q: %w", ep.Path, ep.MaxBodySize, err)
		}

		cfg.Endpoints[i] = EndpointConfig{
			Path:         ep.Path,
			Subscription: ep.Subscription,
			Secret:       secret,
			MaxBodySize:  maxBodySize,
		}
	}

	return cfg, nil
}

// parseMaxBodySize parses size strings like "1MB", "512KB" or "2048576".
// Returns DefaultMaxBodySize if empty.
func parseMaxBodySize(size string) (int64, error) {
	if size == "" {
		return DefaultMaxBodySize, nil
	}

	upper := strings.ToUpper(strings.TrimSpace(size))
	multiplier := int64(1)

	for _, unit := range []struct {
		suffix string
		mult   int64
	}{
		{"KB", 1024},
		{"MB", 1024 * 1024},
		{"GB", 1024 * 1024 * 1024},
	} {
		if strings.HasSuffix(upper, unit.suffix) {
			multiplier = unit.mult
			upper = strings.TrimSuffix(upper, unit.suffix)
			break
		}
	}

	value, err := strconv.ParseInt(strings.TrimSpace(upper), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value: %w", err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("size must be positive")
	}

	result := value * multiplier
	if result/multiplier != value {
		return 0, fmt.Errorf("size too large")
	}

	return result, nil
}

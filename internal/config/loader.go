package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file or a directory holding
// config.yaml. If a .checksums manifest sits beside the file, the file must
// match it.
func Load(configPath string) (*Config, error) {
	absPath, err := resolveConfigFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfigFile(absPath)
	if err != nil {
		return nil, err
	}
	cfg.SourcePath = absPath

	cfg = applyConfigDefaults(cfg)

	if err := verifyConfigHash(absPath); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func resolveConfigFile(configPath string) (string, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return "", fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}
	return absPath, nil
}

// loadConfigFile loads and parses a single config file without defaults.
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	interpolated := interpolateEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &cfg, nil
}

// verifyConfigHash enforces the .checksums manifest when one exists.
func verifyConfigHash(path string) error {
	manifest, err := ReadManifest(filepath.Dir(path))
	if errors.Is(err, ErrNoManifest) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := manifest.Check(path); err != nil {
		return fmt.Errorf("config integrity: %w (run: consolidate-bridge config lock --config %s)", err, path)
	}
	return nil
}

// applyConfigDefaults merges default values into config where not explicitly set.
func applyConfigDefaults(cfg *Config) *Config {
	defaults := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}

	if cfg.State.Path == "" {
		cfg.State.Path = defaults.State.Path
	}

	if cfg.Consolidate.Timeout == 0 {
		cfg.Consolidate.Timeout = defaults.Consolidate.Timeout
	}

	if cfg.Tokens == nil {
		cfg.Tokens = defaults.Tokens
	}

	if cfg.Webhooks != nil && cfg.Webhooks.Listen == "" {
		cfg.Webhooks.Listen = DefaultWebhookListen
	}

	return cfg
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is and caught by validation.
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}

	if cfg.State.Path == "" {
		return fmt.Errorf("state.path is required")
	}

	if cfg.Consolidate.BaseURL == "" {
		return fmt.Errorf("consolidate.base_url is required")
	}
	if err := checkURL("consolidate.base_url", cfg.Consolidate.BaseURL); err != nil {
		return err
	}
	if err := checkUnresolved("consolidate.api_key", cfg.Consolidate.APIKey); err != nil {
		return err
	}
	if cfg.Consolidate.Timeout < 0 {
		return fmt.Errorf("consolidate.timeout must be positive")
	}

	for name, value := range cfg.Tokens {
		if err := checkUnresolved("tokens."+name, value); err != nil {
			return err
		}
	}

	if cfg.Webhooks != nil && cfg.Webhooks.PublicURL != "" {
		if err := checkURL("webhooks.public_url", cfg.Webhooks.PublicURL); err != nil {
			return err
		}
	}

	return validateReferences(cfg)
}

func checkURL(field, raw string) error {
	if err := checkUnresolved(field, raw); err != nil {
		return err
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s must be an absolute http(s) URL (got %q)", field, raw)
	}
	return nil
}

// checkUnresolved reports ${VAR} placeholders left after interpolation.
// Secrets are never echoed back in the error.
func checkUnresolved(field, value string) error {
	if matches := envVarPattern.FindStringSubmatch(value); len(matches) > 1 {
		return fmt.Errorf("%s: environment variable ${%s} is not set", field, matches[1])
	}
	return nil
}

// PublicEndpointURL joins webhooks.public_url with an endpoint path.
func (c *Config) PublicEndpointURL(path string) (string, error) {
	if c.Webhooks == nil || c.Webhooks.PublicURL == "" {
		return "", fmt.Errorf("webhooks.public_url is not configured")
	}
	return strings.TrimRight(c.Webhooks.PublicURL, "/") + "/" + strings.TrimLeft(path, "/"), nil
}

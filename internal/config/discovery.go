package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvConfigPath overrides config discovery.
const EnvConfigPath = "CONSOLIDATE_BRIDGE_CONFIG"

// Discover finds the config file or directory by checking standard locations.
// Priority order: $CONSOLIDATE_BRIDGE_CONFIG, ~/.config/consolidate-bridge,
// /etc/consolidate-bridge, ./config.yaml.
func Discover() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userConfigDir := filepath.Join(homeDir, ".config", "consolidate-bridge")
		if fileExists(filepath.Join(userConfigDir, "config.yaml")) {
			return userConfigDir, nil
		}
	}

	systemConfigDir := "/etc/consolidate-bridge"
	if fileExists(filepath.Join(systemConfigDir, "config.yaml")) {
		return systemConfigDir, nil
	}

	if fileExists("./config.yaml") {
		return "./config.yaml", nil
	}

	return "", fmt.Errorf("no config found (checked: $%s, ~/.config/consolidate-bridge, /etc/consolidate-bridge, ./config.yaml)", EnvConfigPath)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

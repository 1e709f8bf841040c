package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "consolidate:\n  base_url: https://crm.example.com\n")
	t.Setenv(EnvConfigPath, path)

	got, err := Discover()
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if got != path {
		t.Errorf("Discover() = %q, want %q", got, path)
	}
}

func TestDiscoverUserConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvConfigPath, "")

	userDir := filepath.Join(home, ".config", "consolidate-bridge")
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeConfig(t, userDir, "consolidate:\n  base_url: https://crm.example.com\n")

	got, err := Discover()
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if got != userDir {
		t.Errorf("Discover() = %q, want %q", got, userDir)
	}
}

package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

const (
	manifestName    = ".checksums"
	manifestVersion = 1
)

// ErrNoManifest means no .checksums file sits beside the config.
var ErrNoManifest = errors.New("checksums manifest not found")

// Manifest pins the BLAKE3 digest of each config file in a directory.
type Manifest struct {
	Version     int               `yaml:"version"`
	GeneratedAt string            `yaml:"generated_at"`
	Hashes      map[string]string `yaml:"hashes"`
}

// IntegrityError reports a config file whose content no longer matches the
// digest pinned by `config lock`.
type IntegrityError struct {
	File string
	Want string
	Got  string
}

func (e *IntegrityError) Error() string {
	if e.Want == "" {
		return fmt.Sprintf("%s is not listed in %s", e.File, manifestName)
	}
	return fmt.Sprintf("%s changed since it was locked (pinned %.12s, now %.12s)", e.File, e.Want, e.Got)
}

// PinnedFile is one entry written by Lock.
type PinnedFile struct {
	Name   string
	Digest string
}

// LockResult describes a written manifest.
type LockResult struct {
	ManifestPath string
	Files        []PinnedFile
}

// Digest returns the hex BLAKE3-256 digest of a file.
func Digest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Lock pins the config file at configPath (or the config.yaml inside a
// directory) by writing a .checksums manifest next to it.
func Lock(configPath string) (*LockResult, error) {
	file, err := resolveConfigFile(configPath)
	if err != nil {
		return nil, err
	}
	return writeManifest(filepath.Dir(file), filepath.Base(file))
}

func writeManifest(dir string, names ...string) (*LockResult, error) {
	m := Manifest{
		Version:     manifestVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Hashes:      make(map[string]string, len(names)),
	}
	result := &LockResult{ManifestPath: filepath.Join(dir, manifestName)}

	sort.Strings(names)
	for _, name := range names {
		digest, err := Digest(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		m.Hashes[name] = digest
		result.Files = append(result.Files, PinnedFile{Name: name, Digest: digest})
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", manifestName, err)
	}
	if err := os.WriteFile(result.ManifestPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write %s: %w", result.ManifestPath, err)
	}
	return result, nil
}

// ReadManifest loads dir/.checksums. A missing file yields ErrNoManifest.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, manifestName)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoManifest
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if m.Version != manifestVersion {
		return nil, fmt.Errorf("%s: unsupported version %d", path, m.Version)
	}
	return &m, nil
}

// Check compares a file against its pinned digest.
func (m *Manifest) Check(path string) error {
	name := filepath.Base(path)
	want, ok := m.Hashes[name]
	if !ok {
		return &IntegrityError{File: name}
	}
	got, err := Digest(path)
	if err != nil {
		return err
	}
	if got != want {
		return &IntegrityError{File: name, Want: want, Got: got}
	}
	return nil
}

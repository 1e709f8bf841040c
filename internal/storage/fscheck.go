package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RemoteFilesystemError reports a state database placed on a network mount,
// where SQLite file locking is unreliable.
type RemoteFilesystemError struct {
	Path   string
	FSType string
}

func (e *RemoteFilesystemError) Error() string {
	return fmt.Sprintf("state database %q is on network filesystem %q; "+
		"subscriptions and deliveries need a local disk for SQLite locking, set state.path to a local file", e.Path, e.FSType)
}

// fsTypeFunc names the filesystem holding an existing path.
type fsTypeFunc func(path string) (string, error)

var remoteFSTypes = []string{"9p", "afpfs", "afs", "cifs", "coda", "nfs", "smb2", "smbfs", "webdav"}

func isRemoteFS(fsType string) bool {
	fsType = strings.ToLower(strings.TrimSpace(fsType))
	for _, remote := range remoteFSTypes {
		if fsType == remote {
			return true
		}
	}
	return false
}

func requireLocalDisk(path string) error {
	return checkLocalDisk(path, filesystemType)
}

// checkLocalDisk inspects the closest existing ancestor of path, since the
// database file and its directory may not exist yet.
func checkLocalDisk(path string, fsType fsTypeFunc) error {
	if path == "" {
		return fmt.Errorf("sqlite path is empty")
	}

	dir, err := existingAncestor(path)
	if err != nil {
		return fmt.Errorf("resolve database path %q: %w", path, err)
	}
	kind, err := fsType(dir)
	if err != nil {
		return fmt.Errorf("detect filesystem for %q: %w", dir, err)
	}
	if isRemoteFS(kind) {
		return &RemoteFilesystemError{Path: path, FSType: kind}
	}
	return nil
}

func existingAncestor(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}

	for p := abs; ; {
		_, err := os.Stat(p)
		switch {
		case err == nil:
			return p, nil
		case !errors.Is(err, os.ErrNotExist):
			return "", fmt.Errorf("stat %q: %w", p, err)
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", fmt.Errorf("no existing parent for %q", abs)
		}
		p = parent
	}
}

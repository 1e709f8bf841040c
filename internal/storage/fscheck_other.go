//go:build !darwin && !linux

package storage

// filesystemType has no portable answer here; the path is treated as local.
func filesystemType(string) (string, error) {
	return "unknown", nil
}

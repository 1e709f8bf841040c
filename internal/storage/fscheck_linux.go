//go:build linux

package storage

import (
	"fmt"
	"syscall"
)

// Superblock magic numbers of network filesystems (see statfs(2)).
var linuxRemoteMagic = map[uint64]string{
	0x6969:     "nfs",
	0x517B:     "smbfs",
	0xFF534D42: "cifs",
	0xFE534D42: "smb2",
	0x01021997: "9p",
	0x73757245: "coda",
	0x5346414F: "afs",
}

func filesystemType(path string) (string, error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return "", fmt.Errorf("statfs %q: %w", path, err)
	}
	magic := uint64(st.Type)
	if name, ok := linuxRemoteMagic[magic]; ok {
		return name, nil
	}
	return fmt.Sprintf("0x%x", magic), nil
}

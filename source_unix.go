// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

//go:build unix

package bsa

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapFile maps f read-only and returns the release function for the mapping.
// Empty files are not mapped.
func mapFile(f *os.File, size int) ([]byte, func([]byte), error) {
	if size == 0 {
		return nil, nil, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED) //nolint:gosec // fd fits int
	if err != nil {
		// Some filesystems refuse mmap; fall back to a plain read.
		data, readErr := readWholeFile(f, size)
		if readErr != nil {
			return nil, nil, readErr
		}

		return data, nil, nil
	}

	return data, func(b []byte) { _ = unix.Munmap(b) }, nil
}

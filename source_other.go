// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

//go:build !unix

package bsa

import "os"

// mapFile reads f into memory on platforms without a mapping backend.
func mapFile(f *os.File, size int) ([]byte, func([]byte), error) {
	data, err := readWholeFile(f, size)
	return data, nil, err
}

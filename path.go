// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import "strings"

const (
	// PathSeparator is the directory separator stored in archive names.
	PathSeparator = '\\'
	// MaxPathLength is the length at which a normalized path is replaced by PathPlaceholder.
	MaxPathLength = 260
	// PathPlaceholder replaces empty and over-long normalized paths.
	PathPlaceholder = "."
)

// pathCharMap folds ASCII upper case to lower case and '/' to '\'.
var pathCharMap = func() (table [256]byte) {
	for i := range table {
		table[i] = byte(i)
	}
	for c := 'A'; c <= 'Z'; c++ {
		table[c] = byte(c - 'A' + 'a')
	}
	table['/'] = PathSeparator
	return table
}()

// NormalizePath lower-cases ASCII letters, converts '/' to '\' and trims
// separators at both ends. Empty results and results of MaxPathLength bytes
// or more become PathPlaceholder.
func NormalizePath(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		b.WriteByte(pathCharMap[raw[i]])
	}

	s := strings.TrimLeft(strings.TrimRight(b.String(), `\`), `\`)
	if s == "" || len(s) >= MaxPathLength {
		return PathPlaceholder
	}

	return s
}

// SplitPath splits a normalized path at its last separator.
// The directory is empty when there is no separator.
func SplitPath(normalized string) (dir, file string) {
	if i := strings.LastIndexByte(normalized, PathSeparator); i >= 0 {
		return normalized[:i], normalized[i+1:]
	}

	return "", normalized
}

// SplitExt splits a file name at its last '.'. The extension keeps the dot.
func SplitExt(file string) (stem, ext string) {
	if i := strings.LastIndexByte(file, '.'); i >= 0 {
		return file[:i], file[i:]
	}

	return file, ""
}

// JoinPath joins a directory and file name with the archive separator.
func JoinPath(dir, file string) string {
	if dir == "" {
		return file
	}

	return dir + string(PathSeparator) + file
}

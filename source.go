// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
)

// Source is a random-access archive byte source.
//
// Buffers read from a Source are Proxied with the Source as owner, which keeps
// the backing memory alive. A memory-mapped Source is unmapped once it and
// every buffer referencing it become unreachable. Slices obtained from those
// buffers must not be kept after dropping the buffers themselves.
type Source struct {
	data   []byte
	path   string
	mapped bool
}

// NewSource wraps data already in memory.
func NewSource(data []byte) *Source {
	return &Source{data: data}
}

// OpenSource maps the file at path read-only, or reads it when mapping is unavailable.
func OpenSource(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrIO, path, err)
	}

	size := info.Size()
	if size > math.MaxInt {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrOffsetOverflow, path, size)
	}

	data, unmap, err := mapFile(f, int(size))
	if err != nil {
		return nil, fmt.Errorf("%w: map %s: %w", ErrIO, path, err)
	}

	s := &Source{data: data, path: path, mapped: unmap != nil}
	if unmap != nil {
		runtime.AddCleanup(s, unmap, data)
	}

	return s, nil
}

// Bytes returns the whole source.
func (s *Source) Bytes() []byte { return s.data }

// Len returns the source length.
func (s *Source) Len() int { return len(s.data) }

// Path returns the file path, or "" for in-memory sources.
func (s *Source) Path() string { return s.path }

// Mapped reports whether the source is memory-mapped.
func (s *Source) Mapped() bool { return s.mapped }

// ReadAt implements io.ReaderAt.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("%w: negative offset %d", ErrIO, off)
	}
	if off >= int64(len(s.data)) {
		return 0, io.EOF
	}

	n := copy(p, s.data[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

// readWholeFile reads size bytes from f.
func readWholeFile(f *os.File, size int) ([]byte, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}

	return data, nil
}

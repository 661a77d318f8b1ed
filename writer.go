// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFile streams write into a temporary file next to path through a
// buffered writer sized by opts.WriterBufferSize, then renames it over path.
// On failure path is left untouched and the temporary file is removed.
func WriteFile(path string, opts WriteOptions, write func(w io.Writer) error) (err error) {
	opts.ApplyDefaults()

	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrIO, path, err)
	}

	tmpPath := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriterSize(f, opts.WriterBufferSize)
	if err := write(bw); err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: flush %s: %w", ErrIO, path, err)
	}

	if err := f.Chmod(0o644); err != nil { //nolint:gosec // archives are shared game assets
		return fmt.Errorf("%w: chmod %s: %w", ErrIO, path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: rename %s: %w", ErrIO, path, err)
	}

	return nil
}

// ReadSourceFile opens path as a Source and hands it to read.
func ReadSourceFile(path string, read func(src *Source) error) error {
	src, err := OpenSource(path)
	if err != nil {
		return err
	}

	return read(src)
}

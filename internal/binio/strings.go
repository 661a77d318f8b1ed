// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package binio

import (
	"bytes"
	"fmt"
	"math"
)

// ReadBString reads a u8 length followed by that many bytes.
func (r *Reader) ReadBString() (string, error) {
	n, err := r.ReadUint8()
	if err != nil {
		return "", err
	}

	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// ReadBZString reads a u8 length that counts a trailing NUL, then the bytes.
// The returned string excludes the terminator.
func (r *Reader) ReadBZString() (string, error) {
	n, err := r.ReadUint8()
	if err != nil {
		return "", err
	}

	if n == 0 {
		return "", nil
	}

	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}

	return string(b[:n-1]), nil
}

// ReadWString reads a u16 length followed by that many raw bytes.
func (r *Reader) ReadWString() (string, error) {
	n, err := r.ReadUint16()
	if err != nil {
		return "", err
	}

	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// ReadZString reads bytes up to the first NUL and skips the terminator.
func (r *Reader) ReadZString() (string, error) {
	if err := r.need(0); err != nil {
		return "", err
	}

	rest := r.data[r.pos:]
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated string at offset %d", ErrTruncatedInput, r.pos)
	}

	s := string(rest[:end])
	r.pos += end + 1
	return s, nil
}

// WriteBString writes s with a u8 length prefix.
func (w *Writer) WriteBString(s string) {
	if len(s) > math.MaxUint8 {
		w.fail(fmt.Errorf("%w: %d bytes in bstring", ErrStringTooLong, len(s)))
		return
	}

	w.WriteUint8(uint8(len(s))) //nolint:gosec // bounded by check above
	w.WriteBytes([]byte(s))
}

// WriteBZString writes s with a u8 length prefix that counts the appended NUL.
func (w *Writer) WriteBZString(s string) {
	if len(s)+1 > math.MaxUint8 {
		w.fail(fmt.Errorf("%w: %d bytes in bzstring", ErrStringTooLong, len(s)))
		return
	}

	w.WriteUint8(uint8(len(s) + 1)) //nolint:gosec // bounded by check above
	w.WriteBytes([]byte(s))
	w.WriteUint8(0)
}

// WriteWString writes s with a u16 length prefix.
func (w *Writer) WriteWString(s string) {
	if len(s) > math.MaxUint16 {
		w.fail(fmt.Errorf("%w: %d bytes in wstring", ErrStringTooLong, len(s)))
		return
	}

	w.WriteUint16(uint16(len(s))) //nolint:gosec // bounded by check above
	w.WriteBytes([]byte(s))
}

// WriteZString writes s followed by a NUL terminator.
func (w *Writer) WriteZString(s string) {
	w.WriteBytes([]byte(s))
	w.WriteUint8(0)
}

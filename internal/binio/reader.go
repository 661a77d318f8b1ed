// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

// Package binio provides endian-aware cursors over archive bytes.
package binio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrTruncatedInput means a read needs more bytes than the source has left.
	ErrTruncatedInput = errors.New("truncated input")
	// ErrStringTooLong means a string does not fit its length prefix.
	ErrStringTooLong = errors.New("string exceeds length prefix")
)

// Reader is a random-access cursor over an in-memory byte source.
// Reads never copy payload bytes; ReadBytes returns subslices of the source.
type Reader struct {
	data  []byte
	pos   int
	order binary.ByteOrder
}

// NewReader returns a little-endian reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data, order: binary.LittleEndian}
}

// Len returns the total source length.
func (r *Reader) Len() int { return len(r.data) }

// Tell returns the current absolute position.
func (r *Reader) Tell() int { return r.pos }

// Remaining returns bytes left after the cursor, or 0 when the cursor is out of range.
func (r *Reader) Remaining() int {
	if r.pos < 0 || r.pos > len(r.data) {
		return 0
	}

	return len(r.data) - r.pos
}

// SeekAbsolute moves the cursor to pos. Out-of-range positions fail on the next read.
func (r *Reader) SeekAbsolute(pos int) { r.pos = pos }

// SeekRelative moves the cursor by delta bytes.
func (r *Reader) SeekRelative(delta int) { r.pos += delta }

// WithRestore runs fn and puts the cursor back where it was, whatever fn returns.
func (r *Reader) WithRestore(fn func() error) error {
	saved := r.pos
	defer func() { r.pos = saved }()

	return fn()
}

// ReadBytes returns the next n bytes without copying.
// The result has its capacity clipped so appends never write into the source.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}

	out := r.data[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return out, nil
}

// ReadUint8 reads one byte.
func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}

	v := r.data[r.pos]
	r.pos++
	return v, nil
}

// ReadUint16 reads a little-endian uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	return r.ReadUint16Order(r.order)
}

// ReadUint16Order reads a uint16 in the given byte order.
func (r *Reader) ReadUint16Order(order binary.ByteOrder) (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}

	return order.Uint16(b), nil
}

// ReadUint32 reads a little-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	return r.ReadUint32Order(r.order)
}

// ReadUint32Order reads a uint32 in the given byte order.
func (r *Reader) ReadUint32Order(order binary.ByteOrder) (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}

	return order.Uint32(b), nil
}

// ReadUint64 reads a little-endian uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	return r.ReadUint64Order(r.order)
}

// ReadUint64Order reads a uint64 in the given byte order.
func (r *Reader) ReadUint64Order(order binary.ByteOrder) (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}

	return order.Uint64(b), nil
}

// need reports ErrTruncatedInput when fewer than n bytes remain.
func (r *Reader) need(n int) error {
	if n < 0 || r.pos < 0 || r.pos > len(r.data) || len(r.data)-r.pos < n {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedInput, n, r.pos, r.Remaining())
	}

	return nil
}

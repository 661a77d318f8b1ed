// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package binio

import (
	"encoding/binary"
	"io"
)

// Writer appends fixed-width fields to a sink.
// The first sink error is kept and all later writes become no-ops.
type Writer struct {
	w       io.Writer
	order   binary.ByteOrder
	err     error
	written int64
	scratch [8]byte
}

// NewWriter returns a little-endian writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, order: binary.LittleEndian}
}

// Err returns the first error encountered.
func (w *Writer) Err() error { return w.err }

// Written returns the number of bytes accepted by the sink.
func (w *Writer) Written() int64 { return w.written }

// WriteBytes appends p verbatim.
func (w *Writer) WriteBytes(p []byte) {
	if w.err != nil || len(p) == 0 {
		return
	}

	n, err := w.w.Write(p)
	w.written += int64(n)
	if err == nil && n != len(p) {
		err = io.ErrShortWrite
	}

	w.err = err
}

// WriteUint8 appends one byte.
func (w *Writer) WriteUint8(v uint8) {
	w.scratch[0] = v
	w.WriteBytes(w.scratch[:1])
}

// WriteUint16 appends a little-endian uint16.
func (w *Writer) WriteUint16(v uint16) { w.WriteUint16Order(v, w.order) }

// WriteUint16Order appends a uint16 in the given byte order.
func (w *Writer) WriteUint16Order(v uint16, order binary.ByteOrder) {
	order.PutUint16(w.scratch[:2], v)
	w.WriteBytes(w.scratch[:2])
}

// WriteUint32 appends a little-endian uint32.
func (w *Writer) WriteUint32(v uint32) { w.WriteUint32Order(v, w.order) }

// WriteUint32Order appends a uint32 in the given byte order.
func (w *Writer) WriteUint32Order(v uint32, order binary.ByteOrder) {
	order.PutUint32(w.scratch[:4], v)
	w.WriteBytes(w.scratch[:4])
}

// WriteUint64 appends a little-endian uint64.
func (w *Writer) WriteUint64(v uint64) { w.WriteUint64Order(v, w.order) }

// WriteUint64Order appends a uint64 in the given byte order.
func (w *Writer) WriteUint64Order(v uint64, order binary.ByteOrder) {
	order.PutUint64(w.scratch[:8], v)
	w.WriteBytes(w.scratch[:8])
}

// fail records err unless an earlier error is already stored.
func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"
	"github.com/woozymasta/lzss"
)

// Codec compresses and decompresses whole payloads.
// Decompress must return exactly decompressedSize bytes or ErrDecompressedSize.
type Codec interface {
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte, decompressedSize int) ([]byte, error)
}

// Registered codec names accepted by CodecByName.
const (
	CodecNameZlib     = "zlib"
	CodecNameLZ4Frame = "lz4"
	CodecNameLZ4Block = "lz4-block"
	CodecNameLZSS     = "lzss"
)

var (
	// CodecZlib is the zlib stream codec used by TES4 v103/v104 and FO4.
	CodecZlib Codec = zlibCodec{level: zlib.DefaultCompression}
	// CodecLZ4Frame is the LZ4 frame codec used by TES4 v105.
	CodecLZ4Frame Codec = lz4FrameCodec{}
	// CodecLZ4Block is a raw LZ4 block codec.
	CodecLZ4Block Codec = lz4BlockCodec{}
	// CodecLZSS is an LZSS codec for payloads packed by external tools.
	CodecLZSS Codec = lzssCodec{}
)

// NewZlibCodec returns a zlib codec with the given compression level.
func NewZlibCodec(level int) (Codec, error) {
	if level < zlib.HuffmanOnly || level > zlib.BestCompression {
		return nil, fmt.Errorf("%w: zlib level %d", ErrUnknownCodec, level)
	}

	return zlibCodec{level: level}, nil
}

// CodecByName resolves a registered codec name, case-insensitively.
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case CodecNameZlib:
		return CodecZlib, nil
	case CodecNameLZ4Frame:
		return CodecLZ4Frame, nil
	case CodecNameLZ4Block:
		return CodecLZ4Block, nil
	case CodecNameLZSS:
		return CodecLZSS, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// zlibCodec implements Codec over klauspost zlib.
type zlibCodec struct {
	level int
}

// Compress deflates src into a zlib stream.
func (c zlibCodec) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("zlib writer: %w", err)
	}

	if _, err := zw.Write(src); err != nil {
		_ = zw.Close()
		return nil, fmt.Errorf("zlib write: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zlib close: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress inflates a zlib stream.
func (zlibCodec) Decompress(src []byte, decompressedSize int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("zlib reader: %w", err)
	}
	defer func() { _ = zr.Close() }()

	return readExact(zr, decompressedSize)
}

// lz4FrameCodec implements Codec over the LZ4 frame format.
type lz4FrameCodec struct{}

// Compress encodes src as one LZ4 frame.
func (lz4FrameCodec) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		_ = zw.Close()
		return nil, fmt.Errorf("lz4 write: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("lz4 close: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress decodes one LZ4 frame.
func (lz4FrameCodec) Decompress(src []byte, decompressedSize int) ([]byte, error) {
	return readExact(lz4.NewReader(bytes.NewReader(src)), decompressedSize)
}

// lz4BlockCodec implements Codec over raw LZ4 blocks.
type lz4BlockCodec struct{}

// Compress encodes src as one LZ4 block.
func (lz4BlockCodec) Compress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return []byte{}, nil
	}

	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 block: %w", err)
	}

	return dst[:n], nil
}

// Decompress decodes one LZ4 block of known size.
func (lz4BlockCodec) Decompress(src []byte, decompressedSize int) ([]byte, error) {
	if decompressedSize < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrDecompressedSize, decompressedSize)
	}
	if decompressedSize == 0 {
		return []byte{}, nil
	}

	dst := make([]byte, decompressedSize)
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 block: %w", err)
	}

	if n != decompressedSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrDecompressedSize, n, decompressedSize)
	}

	return dst, nil
}

// lzssCodec implements Codec over woozymasta/lzss.
type lzssCodec struct{}

// Compress encodes src with default LZSS options.
func (lzssCodec) Compress(src []byte) ([]byte, error) {
	return lzss.Compress(src, lzss.DefaultCompressOptions())
}

// Decompress decodes an LZSS stream of known size.
func (lzssCodec) Decompress(src []byte, decompressedSize int) ([]byte, error) {
	if decompressedSize < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrDecompressedSize, decompressedSize)
	}

	var out bytes.Buffer
	out.Grow(decompressedSize)
	if _, err := lzss.DecompressToWriter(&out, bytes.NewReader(src), decompressedSize, nil); err != nil {
		return nil, fmt.Errorf("lzss: %w", err)
	}

	if out.Len() != decompressedSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrDecompressedSize, out.Len(), decompressedSize)
	}

	return out.Bytes(), nil
}

// readExact reads exactly size bytes from a stream decoder and requires it to end there.
func readExact(r io.Reader, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrDecompressedSize, size)
	}

	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: stream shorter than %d bytes", ErrDecompressedSize, size)
		}

		return nil, err
	}

	var probe [1]byte
	_, err := io.ReadFull(r, probe[:])
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: stream longer than %d bytes", ErrDecompressedSize, size)
	case errors.Is(err, io.EOF):
		return out, nil
	default:
		return nil, err
	}
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import "fmt"

// CompressedBuffer wraps a Buffer with an optional decompressed size.
// The size is known if and only if the stored bytes are compressed.
type CompressedBuffer struct {
	buf              Buffer
	decompressedSize int
	compressed       bool
}

// Bytes returns the stored bytes, compressed or not.
func (c *CompressedBuffer) Bytes() []byte { return c.buf.Bytes() }

// Len returns the stored length.
func (c *CompressedBuffer) Len() int { return c.buf.Len() }

// Empty reports whether nothing is stored.
func (c *CompressedBuffer) Empty() bool { return c.buf.Empty() }

// Ownership returns the active representation of the stored bytes.
func (c *CompressedBuffer) Ownership() Ownership { return c.buf.Ownership() }

// Compressed reports whether the stored bytes are compressed.
func (c *CompressedBuffer) Compressed() bool { return c.compressed }

// DecompressedSize returns the declared payload size when compressed.
func (c *CompressedBuffer) DecompressedSize() (int, bool) {
	return c.decompressedSize, c.compressed
}

// PayloadLen returns the decompressed size when compressed and the stored length otherwise.
func (c *CompressedBuffer) PayloadLen() int {
	if c.compressed {
		return c.decompressedSize
	}

	return c.buf.Len()
}

// SetView borrows uncompressed data.
func (c *CompressedBuffer) SetView(data []byte) {
	c.buf.SetView(data)
	c.markRaw()
}

// SetOwned takes ownership of uncompressed data.
func (c *CompressedBuffer) SetOwned(data []byte) {
	c.buf.SetOwned(data)
	c.markRaw()
}

// SetProxied stores uncompressed data kept alive by owner.
func (c *CompressedBuffer) SetProxied(data []byte, owner any) {
	c.buf.SetProxied(data, owner)
	c.markRaw()
}

// SetCompressedView borrows compressed data that inflates to decompressedSize bytes.
func (c *CompressedBuffer) SetCompressedView(data []byte, decompressedSize int) {
	c.buf.SetView(data)
	c.markCompressed(decompressedSize)
}

// SetCompressedOwned takes ownership of compressed data that inflates to decompressedSize bytes.
func (c *CompressedBuffer) SetCompressedOwned(data []byte, decompressedSize int) {
	c.buf.SetOwned(data)
	c.markCompressed(decompressedSize)
}

// SetCompressedProxied stores compressed data kept alive by owner.
func (c *CompressedBuffer) SetCompressedProxied(data []byte, owner any, decompressedSize int) {
	c.buf.SetProxied(data, owner)
	c.markCompressed(decompressedSize)
}

// SetStored captures bytes from a record using the on-disk size convention:
// a nonzero compressedSize marks data as compressed with decompressedSize as
// its payload length. A nil owner stores a View.
func (c *CompressedBuffer) SetStored(data []byte, owner any, compressedSize, decompressedSize int) {
	if compressedSize != 0 {
		c.SetCompressedProxied(data, owner, decompressedSize)
		return
	}

	c.SetProxied(data, owner)
}

// Detach copies the stored bytes into an Owned allocation, keeping the compression state.
func (c *CompressedBuffer) Detach() { c.buf.Detach() }

// Clear resets to an empty uncompressed View.
func (c *CompressedBuffer) Clear() {
	c.buf.Clear()
	c.markRaw()
}

// Compress replaces the stored bytes with their compressed form.
// It is a no-op when the bytes are already compressed.
func (c *CompressedBuffer) Compress(codec Codec) error {
	if c.compressed {
		return nil
	}
	if codec == nil {
		return ErrNilCodec
	}

	size := c.buf.Len()
	out, err := codec.Compress(c.buf.Bytes())
	if err != nil {
		return fmt.Errorf("compress: %w", err)
	}

	c.SetCompressedOwned(out, size)
	return nil
}

// Decompress replaces the stored bytes with the decompressed payload.
// It is a no-op when the bytes are not compressed.
func (c *CompressedBuffer) Decompress(codec Codec) error {
	if !c.compressed {
		return nil
	}

	out, err := c.Materialize(codec)
	if err != nil {
		return err
	}

	c.SetOwned(out)
	return nil
}

// Materialize returns the decompressed payload without changing the buffer.
// Uncompressed bytes are returned as stored. Safe for concurrent use on an unmodified buffer.
func (c *CompressedBuffer) Materialize(codec Codec) ([]byte, error) {
	if !c.compressed {
		return c.buf.Bytes(), nil
	}
	if codec == nil {
		return nil, ErrNilCodec
	}

	out, err := codec.Decompress(c.buf.Bytes(), c.decompressedSize)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}

	return out, nil
}

// markRaw clears the compression tag.
func (c *CompressedBuffer) markRaw() {
	c.compressed = false
	c.decompressedSize = 0
}

// markCompressed sets the compression tag.
func (c *CompressedBuffer) markCompressed(size int) {
	c.compressed = true
	c.decompressedSize = size
}

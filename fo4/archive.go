// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

// Package fo4 reads and writes "BTDX" archives (Fallout 4).
//
// A GNRL archive stores each file as one chunk. A DX10 archive stores
// textures as mip chunks plus a texture header. Chunks read from an
// archive stay compressed until decompressed with CodecFor(format).
package fo4

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/woozymasta/bsa"
	"github.com/woozymasta/bsa/internal/binio"
)

const (
	headerSize = 0x18
	version    = 1
)

// CodecFor returns the chunk compression codec of format f. Both GNRL and
// DX10 archives store zlib streams.
func CodecFor(Format) bsa.Codec {
	return bsa.CodecZlib
}

// Key identifies one file.
type Key = bsa.Key[Hash]

// KeyOf normalizes path and returns its key.
func KeyOf(path string) Key {
	h, name := HashFile(path)
	return bsa.NewKey(h, name)
}

// Archive is an insertion-ordered index of files.
type Archive struct {
	bsa.Map[Hash, File]
}

// header is the fixed archive prologue.
type header struct {
	format            Format
	fileCount         uint32
	stringTableOffset uint64
}

// Add stores data as one Owned uncompressed chunk under the normalized path.
func (a *Archive) Add(path string, data []byte) (*File, error) {
	var f File
	f.AddChunk(data, Mips{})
	return a.Insert(KeyOf(path), f)
}

// Find looks up a file by path.
func (a *Archive) Find(path string) (*File, bool) {
	h, _ := HashFile(path)
	return a.Get(h)
}

// ReadFile reads the archive at path through a memory-mapped Source.
func (a *Archive) ReadFile(path string, opts bsa.ReadOptions) (Format, error) {
	var format Format
	err := bsa.ReadSourceFile(path, func(src *bsa.Source) error {
		var readErr error
		format, readErr = a.Read(src, opts)
		return readErr
	})
	if err != nil {
		a.Clear()
		return 0, err
	}

	return format, nil
}

// Read parses src and returns the archive format. Chunks are Proxied to src.
// On failure the archive is left empty.
func (a *Archive) Read(src *bsa.Source, opts bsa.ReadOptions) (Format, error) {
	if src == nil {
		a.Clear()
		return 0, bsa.ErrNilSource
	}

	return a.read(src.Bytes(), src, opts)
}

// ReadBytes parses data. Chunks are Views into data.
func (a *Archive) ReadBytes(data []byte, opts bsa.ReadOptions) (Format, error) {
	return a.read(data, nil, opts)
}

// read builds a fresh index and swaps it in only on success.
func (a *Archive) read(data []byte, owner any, opts bsa.ReadOptions) (Format, error) {
	opts.ApplyDefaults()

	var next Archive
	format, err := readIndex(&next, binio.NewReader(data), owner)
	if err != nil {
		a.Clear()
		return 0, err
	}

	*a = next
	opts.Logger.Debug("read fo4 archive",
		slog.String("format", format.String()),
		slog.Int("files", a.Len()),
	)
	return format, nil
}

func readHeader(r *binio.Reader) (header, error) {
	magic, err := r.ReadUint32()
	if err != nil {
		return header{}, fmt.Errorf("%w: %w", bsa.ErrMalformedHeader, err)
	}
	if magic != bsa.MagicFO4 {
		return header{}, fmt.Errorf("%w: magic 0x%08X", bsa.ErrMalformedHeader, magic)
	}

	v, err := r.ReadUint32()
	if err != nil {
		return header{}, fmt.Errorf("%w: %w", bsa.ErrMalformedHeader, err)
	}
	if v != version {
		return header{}, fmt.Errorf("%w: unsupported version %d", bsa.ErrMalformedHeader, v)
	}

	var h header
	tag, err := r.ReadUint32()
	if err != nil {
		return header{}, fmt.Errorf("%w: %w", bsa.ErrMalformedHeader, err)
	}
	h.format = Format(tag)
	if _, _, err := h.format.layout(); err != nil {
		return header{}, err
	}

	if h.fileCount, err = r.ReadUint32(); err != nil {
		return header{}, fmt.Errorf("%w: %w", bsa.ErrMalformedHeader, err)
	}
	if h.stringTableOffset, err = r.ReadUint64(); err != nil {
		return header{}, fmt.Errorf("%w: %w", bsa.ErrMalformedHeader, err)
	}

	return h, nil
}

func writeHeader(w *binio.Writer, h header) {
	w.WriteUint32(bsa.MagicFO4)
	w.WriteUint32(version)
	w.WriteUint32(uint32(h.format))
	w.WriteUint32(h.fileCount)
	w.WriteUint64(h.stringTableOffset)
}

// readIndex parses the header and every file record into dst.
// A zero string table offset means the archive carries no names.
func readIndex(dst *Archive, r *binio.Reader, owner any) (Format, error) {
	h, err := readHeader(r)
	if err != nil {
		return 0, err
	}
	if h.stringTableOffset > math.MaxInt {
		return 0, fmt.Errorf("%w: string table offset 0x%X", bsa.ErrMalformedHeader, h.stringTableOffset)
	}

	namePos := int(h.stringTableOffset)
	for i := range h.fileCount {
		hash, err := readHash(r)
		if err != nil {
			return 0, fmt.Errorf("file %d: %w", i, err)
		}

		var name string
		if h.stringTableOffset != 0 {
			err = r.WithRestore(func() error {
				r.SeekAbsolute(namePos)
				var err error
				if name, err = r.ReadWString(); err != nil {
					return fmt.Errorf("name: %w", err)
				}
				namePos = r.Tell()
				return nil
			})
			if err != nil {
				return 0, fmt.Errorf("file %d: %w", i, err)
			}
		}

		file, err := dst.Insert(bsa.NewKey(hash, name), File{})
		if err != nil {
			return 0, fmt.Errorf("file %d: %w", i, err)
		}

		if err := readFile(file, r, h.format, owner); err != nil {
			return 0, fmt.Errorf("file %d %q: %w", i, name, err)
		}
	}

	return h.format, nil
}

// Write emits the archive in format in insertion order.
func (a *Archive) Write(w io.Writer, format Format, opts bsa.WriteOptions) error {
	opts.ApplyDefaults()

	h, dataOffset, err := a.makeHeader(format)
	if err != nil {
		return err
	}

	bw := binio.NewWriter(w)
	writeHeader(bw, h)

	recordSize, _, _ := format.layout()
	for key, file := range a.All() {
		writeHash(bw, key.Hash())
		// mod index, chunk count, record header size
		bw.WriteUint8(0)
		bw.WriteUint8(uint8(len(file.Chunks))) //nolint:gosec // checked by makeHeader
		bw.WriteUint16(uint16(recordSize))     //nolint:gosec // layout constant

		if format == FormatDirectX {
			writeTextureHeader(bw, file.Header)
		}
		for i := range file.Chunks {
			writeChunk(bw, &file.Chunks[i], format, &dataOffset)
		}
	}

	for _, file := range a.All() {
		for i := range file.Chunks {
			bw.WriteBytes(file.Chunks[i].Bytes())
		}
	}

	for key := range a.All() {
		bw.WriteWString(key.Name())
	}

	if err := bw.Err(); err != nil {
		return fmt.Errorf("%w: write fo4 archive: %w", bsa.ErrIO, err)
	}

	opts.Logger.Debug("wrote fo4 archive",
		slog.String("format", format.String()),
		slog.Uint64("files", uint64(h.fileCount)),
		slog.Int64("bytes", bw.Written()),
	)
	return nil
}

// WriteFile writes the archive to path in format.
func (a *Archive) WriteFile(path string, format Format, opts bsa.WriteOptions) error {
	return bsa.WriteFile(path, opts, func(w io.Writer) error {
		return a.Write(w, format, opts)
	})
}

// makeHeader validates record limits and returns the header plus the
// absolute offset of the first chunk's data.
func (a *Archive) makeHeader(format Format) (header, uint64, error) {
	recordSize, chunkSize, err := format.layout()
	if err != nil {
		return header{}, 0, err
	}
	if uint64(a.Len()) > math.MaxUint32 {
		return header{}, 0, fmt.Errorf("%w: %d files", bsa.ErrOffsetOverflow, a.Len())
	}

	dataOffset := uint64(headerSize) + uint64(recordSize)*uint64(a.Len()) //nolint:gosec // counts are non-negative
	var dataSize uint64
	for key, file := range a.All() {
		if len(file.Chunks) > MaxChunks {
			return header{}, 0, fmt.Errorf("%w: %q has %d chunks", bsa.ErrMalformedRecord, key.Name(), len(file.Chunks))
		}
		if len(key.Name()) > math.MaxUint16 {
			return header{}, 0, fmt.Errorf("%w: name of %d bytes", bsa.ErrStringTooLong, len(key.Name()))
		}

		dataOffset += uint64(chunkSize) * uint64(len(file.Chunks)) //nolint:gosec // bounded by MaxChunks
		for i := range file.Chunks {
			c := &file.Chunks[i]
			if uint64(c.Len()) > math.MaxUint32 || uint64(c.PayloadLen()) > math.MaxUint32 { //nolint:gosec // lengths are non-negative
				return header{}, 0, fmt.Errorf("%w: chunk %d of %q", bsa.ErrOffsetOverflow, i, key.Name())
			}
			dataSize += uint64(c.Len()) //nolint:gosec // lengths are non-negative
		}
	}

	return header{
		format:            format,
		fileCount:         uint32(a.Len()), //nolint:gosec // bounded above
		stringTableOffset: dataOffset + dataSize,
	}, dataOffset, nil
}

// Members returns a format-independent view of every file in archive order.
// Chunks are decompressed with codec and concatenated.
func (a *Archive) Members(codec bsa.Codec) []bsa.Member {
	members := make([]bsa.Member, 0, a.Len())
	for key, file := range a.All() {
		members = append(members, bsa.Member{
			Name:       key.Name(),
			StoredSize: file.StoredSize(),
			Size:       file.PayloadSize(),
			Compressed: file.Compressed(),
			Open:       func() ([]byte, error) { return file.Materialize(codec) },
		})
	}

	return members
}

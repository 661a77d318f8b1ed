// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

// Package tes3 reads and writes Morrowind archives.
//
// Layout: a 12-byte header, (size, offset) file records, name offsets,
// NUL-terminated names, (lo, hi) hashes, then file data. Data offsets are
// relative to the start of the data block.
package tes3

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/woozymasta/bsa"
	"github.com/woozymasta/bsa/internal/binio"
)

const (
	headerSize     = 0xC
	fileRecordSize = 8
	nameOffsetSize = 4
	hashRecordSize = 8
)

// Key identifies one file.
type Key = bsa.Key[Hash]

// KeyOf normalizes path and returns its key.
func KeyOf(path string) Key {
	h, name := HashFile(path)
	return bsa.NewKey(h, name)
}

// File is one stored payload. TES3 never compresses.
type File struct {
	bsa.Buffer
}

// Archive is an insertion-ordered index of files.
type Archive struct {
	bsa.Map[Hash, File]
}

// header is the fixed archive prologue.
type header struct {
	hashOffset uint32
	fileCount  uint32
}

// Add stores data as an Owned payload under the normalized path.
func (a *Archive) Add(path string, data []byte) (*File, error) {
	var f File
	f.SetOwned(data)
	return a.Insert(KeyOf(path), f)
}

// Find looks up a file by path.
func (a *Archive) Find(path string) (*File, bool) {
	h, _ := HashFile(path)
	return a.Get(h)
}

// ReadFile reads the archive at path through a memory-mapped Source.
func (a *Archive) ReadFile(path string, opts bsa.ReadOptions) error {
	err := bsa.ReadSourceFile(path, func(src *bsa.Source) error {
		return a.Read(src, opts)
	})
	if err != nil {
		a.Clear()
	}

	return err
}

// Read parses src. Files are Proxied to src.
// On failure the archive is left empty.
func (a *Archive) Read(src *bsa.Source, opts bsa.ReadOptions) error {
	if src == nil {
		a.Clear()
		return bsa.ErrNilSource
	}

	return a.read(src.Bytes(), src, opts)
}

// ReadBytes parses data. Files are Views into data.
func (a *Archive) ReadBytes(data []byte, opts bsa.ReadOptions) error {
	return a.read(data, nil, opts)
}

// read builds a fresh index and swaps it in only on success.
func (a *Archive) read(data []byte, owner any, opts bsa.ReadOptions) error {
	opts.ApplyDefaults()

	var next bsa.Map[Hash, File]
	if err := readIndex(&next, binio.NewReader(data), owner, opts.Logger); err != nil {
		a.Clear()
		return err
	}

	a.Map = next
	return nil
}

// readHeader validates the magic and returns the header.
func readHeader(r *binio.Reader) (header, error) {
	magic, err := r.ReadUint32()
	if err != nil {
		return header{}, fmt.Errorf("%w: %w", bsa.ErrMalformedHeader, err)
	}
	if magic != bsa.MagicTES3 {
		return header{}, fmt.Errorf("%w: magic 0x%08X", bsa.ErrMalformedHeader, magic)
	}

	var h header
	if h.hashOffset, err = r.ReadUint32(); err != nil {
		return header{}, fmt.Errorf("%w: %w", bsa.ErrMalformedHeader, err)
	}
	if h.fileCount, err = r.ReadUint32(); err != nil {
		return header{}, fmt.Errorf("%w: %w", bsa.ErrMalformedHeader, err)
	}

	return h, nil
}

// readIndex reads every file record into m.
func readIndex(m *bsa.Map[Hash, File], r *binio.Reader, owner any, logger *slog.Logger) error {
	h, err := readHeader(r)
	if err != nil {
		return err
	}

	count := int64(h.fileCount)
	hashesStart := int64(headerSize) + int64(h.hashOffset)
	dataStart := hashesStart + hashRecordSize*count
	if dataStart > int64(r.Len()) {
		return fmt.Errorf("%w: %d files need %d index bytes, have %d", bsa.ErrTruncatedInput, count, dataStart, r.Len())
	}

	nameOffsetsStart := int64(headerSize) + fileRecordSize*count
	namesStart := nameOffsetsStart + nameOffsetSize*count

	r.SeekAbsolute(headerSize)
	for i := range count {
		size, err := r.ReadUint32()
		if err != nil {
			return fmt.Errorf("file %d size: %w", i, err)
		}
		offset, err := r.ReadUint32()
		if err != nil {
			return fmt.Errorf("file %d offset: %w", i, err)
		}

		var (
			name string
			hash Hash
			data []byte
		)
		err = r.WithRestore(func() error {
			r.SeekAbsolute(int(nameOffsetsStart + nameOffsetSize*i))
			nameOffset, err := r.ReadUint32()
			if err != nil {
				return fmt.Errorf("file %d name offset: %w", i, err)
			}

			r.SeekAbsolute(int(namesStart + int64(nameOffset)))
			if name, err = r.ReadZString(); err != nil {
				return fmt.Errorf("file %d name: %w", i, err)
			}

			r.SeekAbsolute(int(hashesStart + hashRecordSize*i))
			if hash.Lo, err = r.ReadUint32(); err != nil {
				return fmt.Errorf("file %d hash: %w", i, err)
			}
			if hash.Hi, err = r.ReadUint32(); err != nil {
				return fmt.Errorf("file %d hash: %w", i, err)
			}

			r.SeekAbsolute(int(dataStart + int64(offset)))
			if data, err = r.ReadBytes(int(size)); err != nil {
				return fmt.Errorf("file %s data: %w", name, err)
			}

			return nil
		})
		if err != nil {
			return err
		}

		file, err := m.Insert(bsa.NewKey(hash, name), File{})
		if err != nil {
			return err
		}

		file.SetProxied(data, owner)
	}

	logger.Debug("read tes3 archive", slog.Int64("files", count), slog.Int64("data_offset", dataStart))
	return nil
}

// VerifyOffsets reports whether every size and offset fits its 32-bit field.
func (a *Archive) VerifyOffsets() bool {
	_, err := a.makeHeader()
	return err == nil
}

// makeHeader computes the header and checks 32-bit limits.
func (a *Archive) makeHeader() (header, error) {
	count := uint64(a.Len())
	if count > math.MaxUint32 {
		return header{}, fmt.Errorf("%w: %d files", bsa.ErrOffsetOverflow, count)
	}

	hashOffset := (fileRecordSize + nameOffsetSize) * count
	var dataSize uint64
	for key, file := range a.All() {
		hashOffset += uint64(len(key.Name())) + 1
		if dataSize > math.MaxUint32 || uint64(file.Len()) > math.MaxUint32 {
			return header{}, fmt.Errorf("%w: data offset of %s", bsa.ErrOffsetOverflow, key.Name())
		}
		dataSize += uint64(file.Len())
	}

	if hashOffset > math.MaxUint32 {
		return header{}, fmt.Errorf("%w: name table of %d bytes", bsa.ErrOffsetOverflow, hashOffset)
	}

	return header{hashOffset: uint32(hashOffset), fileCount: uint32(count)}, nil //nolint:gosec // bounded above
}

// Write emits the archive in insertion order.
func (a *Archive) Write(w io.Writer, opts bsa.WriteOptions) error {
	opts.ApplyDefaults()

	h, err := a.makeHeader()
	if err != nil {
		return err
	}

	bw := binio.NewWriter(w)
	bw.WriteUint32(bsa.MagicTES3)
	bw.WriteUint32(h.hashOffset)
	bw.WriteUint32(h.fileCount)

	var offset uint32
	for _, file := range a.All() {
		size := uint32(file.Len()) //nolint:gosec // checked by makeHeader
		bw.WriteUint32(size)
		bw.WriteUint32(offset)
		offset += size
	}

	var nameOffset uint32
	for key := range a.All() {
		bw.WriteUint32(nameOffset)
		nameOffset += uint32(len(key.Name())) + 1 //nolint:gosec // checked by makeHeader
	}

	for key := range a.All() {
		bw.WriteZString(key.Name())
	}

	for key := range a.All() {
		bw.WriteUint32(key.Hash().Lo)
		bw.WriteUint32(key.Hash().Hi)
	}

	for _, file := range a.All() {
		bw.WriteBytes(file.Bytes())
	}

	if err := bw.Err(); err != nil {
		return fmt.Errorf("%w: write tes3 archive: %w", bsa.ErrIO, err)
	}

	opts.Logger.Debug("wrote tes3 archive", slog.Int("files", a.Len()), slog.Int64("bytes", bw.Written()))
	return nil
}

// WriteFile writes the archive to path.
func (a *Archive) WriteFile(path string, opts bsa.WriteOptions) error {
	return bsa.WriteFile(path, opts, func(w io.Writer) error {
		return a.Write(w, opts)
	})
}

// Members returns a format-independent view of the files in archive order.
func (a *Archive) Members() []bsa.Member {
	members := make([]bsa.Member, 0, a.Len())
	for key, file := range a.All() {
		members = append(members, bsa.Member{
			Name:       key.Name(),
			StoredSize: int64(file.Len()),
			Size:       int64(file.Len()),
			Open:       func() ([]byte, error) { return file.Bytes(), nil },
		})
	}

	return members
}

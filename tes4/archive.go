// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

// Package tes4 reads and writes "BSA\0" archives (Oblivion through Skyrim SE).
//
// Files are grouped into directories. Both levels are keyed by TES4 hashes
// and keep insertion order. Payloads read from an archive stay compressed
// until File.Decompress or File.Materialize is called with CodecFor(version).
package tes4

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/woozymasta/bsa"
	"github.com/woozymasta/bsa/internal/binio"
)

// Key identifies a directory or a file.
type Key = bsa.Key[Hash]

// DirectoryKey normalizes path and returns its directory key.
func DirectoryKey(path string) Key {
	h, name := HashDirectory(path)
	return bsa.NewKey(h, name)
}

// FileKey normalizes path and returns the key of its last component.
func FileKey(path string) Key {
	h, name := HashFile(path)
	return bsa.NewKey(h, name)
}

// File is one stored payload, possibly compressed.
type File struct {
	bsa.CompressedBuffer
}

// Directory is an insertion-ordered index of files.
type Directory struct {
	bsa.Map[Hash, File]
}

// Add stores data as an Owned uncompressed payload under the file name of path.
func (d *Directory) Add(path string, data []byte) (*File, error) {
	var f File
	f.SetOwned(data)
	return d.Insert(FileKey(path), f)
}

// Find looks up a file by name.
func (d *Directory) Find(name string) (*File, bool) {
	h, _ := HashFile(name)
	return d.Get(h)
}

// Archive is an insertion-ordered index of directories plus header flags.
type Archive struct {
	bsa.Map[Hash, Directory]

	// Flags are written to the header verbatim.
	Flags ArchiveFlag `json:"flags" yaml:"flags"`
	// Types are written to the header verbatim.
	Types ArchiveType `json:"types" yaml:"types"`
}

// Clear removes every directory and resets the header fields.
func (a *Archive) Clear() {
	a.Map.Clear()
	a.Flags = 0
	a.Types = 0
}

// AddDirectory returns the directory for path, creating it when absent.
func (a *Archive) AddDirectory(path string) (*Directory, error) {
	key := DirectoryKey(path)
	if dir, ok := a.Get(key.Hash()); ok {
		return dir, nil
	}

	return a.Insert(key, Directory{})
}

// Add stores data under path, creating its directory when absent.
func (a *Archive) Add(path string, data []byte) (*File, error) {
	dirPath, _ := bsa.SplitPath(bsa.NormalizePath(path))
	dir, err := a.AddDirectory(dirPath)
	if err != nil {
		return nil, err
	}

	return dir.Add(path, data)
}

// FindDirectory looks up a directory by path.
func (a *Archive) FindDirectory(path string) (*Directory, bool) {
	h, _ := HashDirectory(path)
	return a.Get(h)
}

// Find looks up a file by its full path.
func (a *Archive) Find(path string) (*File, bool) {
	dirPath, _ := bsa.SplitPath(bsa.NormalizePath(path))
	dir, ok := a.FindDirectory(dirPath)
	if !ok {
		return nil, false
	}

	return dir.Find(path)
}

// ReadFile reads the archive at path through a memory-mapped Source.
func (a *Archive) ReadFile(path string, opts bsa.ReadOptions) (Version, error) {
	var v Version
	err := bsa.ReadSourceFile(path, func(src *bsa.Source) error {
		var readErr error
		v, readErr = a.Read(src, opts)
		return readErr
	})
	if err != nil {
		a.Clear()
		return 0, err
	}

	return v, nil
}

// Read parses src and returns the archive version. Files are Proxied to src.
// On failure the archive is left empty.
func (a *Archive) Read(src *bsa.Source, opts bsa.ReadOptions) (Version, error) {
	if src == nil {
		a.Clear()
		return 0, bsa.ErrNilSource
	}

	return a.read(src.Bytes(), src, opts)
}

// ReadBytes parses data. Files are Views into data.
func (a *Archive) ReadBytes(data []byte, opts bsa.ReadOptions) (Version, error) {
	return a.read(data, nil, opts)
}

// read builds a fresh index and swaps it in only on success.
func (a *Archive) read(data []byte, owner any, opts bsa.ReadOptions) (Version, error) {
	opts.ApplyDefaults()

	var next Archive
	v, err := readIndex(&next, binio.NewReader(data), owner, opts.Logger)
	if err != nil {
		a.Clear()
		return 0, err
	}

	*a = next
	return v, nil
}

// readIndex parses the header and every directory into dst.
func readIndex(dst *Archive, r *binio.Reader, owner any, logger *slog.Logger) (Version, error) {
	h, err := readHeader(r)
	if err != nil {
		return 0, err
	}

	namesOffset := h.offsetOfFileStrings()
	for i := range h.dirCount {
		if err := readDirectory(dst, r, h, owner, &namesOffset); err != nil {
			return 0, fmt.Errorf("directory %d: %w", i, err)
		}
	}

	dst.Flags = h.flags
	dst.Types = h.types

	logger.Debug("read tes4 archive",
		slog.Uint64("version", uint64(h.version)),
		slog.Uint64("directories", uint64(h.dirCount)),
		slog.Uint64("files", uint64(h.fileCount)),
		slog.Uint64("flags", uint64(h.flags)),
	)
	return h.version, nil
}

// readDirectory parses one directory record and the file records it points at.
func readDirectory(dst *Archive, r *binio.Reader, h header, owner any, namesOffset *int64) error {
	hash, err := readHash(r, h.order())
	if err != nil {
		return err
	}

	count, err := r.ReadUint32()
	if err != nil {
		return fmt.Errorf("file count: %w", err)
	}

	if h.version == VersionSSE {
		r.SeekRelative(4)
	}
	offset, err := r.ReadUint32()
	if err != nil {
		return fmt.Errorf("offset: %w", err)
	}
	if h.version == VersionSSE {
		r.SeekRelative(4)
	}

	recordsOffset := int64(offset)
	if h.fileStrings() {
		recordsOffset -= int64(h.fileNamesLen)
	}
	if recordsOffset < 0 {
		return fmt.Errorf("%w: directory records at %d", bsa.ErrMalformedRecord, recordsOffset)
	}

	var (
		name        string
		dir         Directory
		embeddedDir string
		hasEmbedded bool
	)
	err = r.WithRestore(func() error {
		r.SeekAbsolute(int(recordsOffset))
		if h.directoryStrings() {
			var err error
			if name, err = r.ReadBZString(); err != nil {
				return fmt.Errorf("name: %w", err)
			}
		}

		var err error
		embeddedDir, hasEmbedded, err = readFileEntries(&dir, r, h, count, owner, namesOffset)
		return err
	})
	if err != nil {
		return err
	}

	if hasEmbedded {
		name = embeddedDir
	}

	_, err = dst.Insert(bsa.NewKey(hash, name), dir)
	return err
}

// readFileEntries parses count file records. It returns the directory part of
// the first embedded name that carries one.
func readFileEntries(dir *Directory, r *binio.Reader, h header, count uint32, owner any, namesOffset *int64) (string, bool, error) {
	var (
		dirName string
		hasDir  bool
	)

	for i := range count {
		hash, err := readHash(r, h.order())
		if err != nil {
			return "", false, fmt.Errorf("file %d: %w", i, err)
		}

		size, err := r.ReadUint32()
		if err != nil {
			return "", false, fmt.Errorf("file %d size: %w", i, err)
		}
		offset, err := r.ReadUint32()
		if err != nil {
			return "", false, fmt.Errorf("file %d offset: %w", i, err)
		}

		err = r.WithRestore(func() error {
			r.SeekAbsolute(int(offset &^ offsetFlagSecondary))

			flipped := size&sizeFlagCompression != 0
			size &^= sizeFlagCompression | sizeFlagChecked

			var name string
			switch {
			case h.embeddedFileNames():
				full, err := r.ReadBString()
				if err != nil {
					return fmt.Errorf("embedded name: %w", err)
				}
				if uint32(len(full))+1 > size {
					return fmt.Errorf("%w: embedded name %q exceeds file size %d", bsa.ErrMalformedRecord, full, size)
				}
				size -= uint32(len(full)) + 1

				name = full
				if pos := strings.LastIndexAny(full, `\/`); pos >= 0 {
					if !hasDir {
						dirName, hasDir = full[:pos], true
					}
					name = full[pos+1:]
				}
			case h.fileStrings():
				err := r.WithRestore(func() error {
					r.SeekAbsolute(int(*namesOffset))
					var err error
					if name, err = r.ReadZString(); err != nil {
						return fmt.Errorf("name: %w", err)
					}
					*namesOffset = int64(r.Tell())
					return nil
				})
				if err != nil {
					return err
				}
			}

			file, err := dir.Insert(bsa.NewKey(hash, name), File{})
			if err != nil {
				return err
			}

			return readFileData(file, r, h, flipped, size, owner)
		})
		if err != nil {
			return "", false, fmt.Errorf("file %d: %w", i, err)
		}
	}

	return dirName, hasDir, nil
}

// readFileData captures the payload at the cursor. Compressed payloads are
// prefixed with their decompressed size.
func readFileData(file *File, r *binio.Reader, h header, flipped bool, size uint32, owner any) error {
	compressed := flipped != h.compressed()
	if !compressed {
		data, err := r.ReadBytes(int(size))
		if err != nil {
			return fmt.Errorf("data: %w", err)
		}

		file.SetProxied(data, owner)
		return nil
	}

	if size < 4 {
		return fmt.Errorf("%w: compressed size %d lacks its length prefix", bsa.ErrMalformedRecord, size)
	}

	decompressedSize, err := r.ReadUint32()
	if err != nil {
		return fmt.Errorf("decompressed size: %w", err)
	}

	data, err := r.ReadBytes(int(size - 4))
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}

	file.SetCompressedProxied(data, owner, int(decompressedSize))
	return nil
}

// Members returns a format-independent view of every file in archive order.
// Payloads are decompressed with CodecFor(v).
func (a *Archive) Members(v Version) []bsa.Member {
	codec := CodecFor(v)
	members := make([]bsa.Member, 0, a.Len())
	for dirKey, dir := range a.All() {
		for fileKey, file := range dir.All() {
			members = append(members, bsa.Member{
				Name:       bsa.JoinPath(dirKey.Name(), fileKey.Name()),
				StoredSize: int64(file.Len()),
				Size:       int64(file.PayloadLen()),
				Compressed: file.Compressed(),
				Open:       func() ([]byte, error) { return file.Materialize(codec) },
			})
		}
	}

	return members
}

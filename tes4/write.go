// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package tes4

import (
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/bits"
	"slices"

	"github.com/woozymasta/bsa"
	"github.com/woozymasta/bsa/internal/binio"
)

// writeDirectory is one directory in emission order.
type writeDirectory struct {
	dir   *Directory
	files []writeFile
	key   Key
}

// writeFile is one file in emission order.
type writeFile struct {
	file *File
	key  Key
}

// VerifyOffsets reports whether every data offset fits the signed 32-bit
// range the games address, leaving bit 31 for the secondary-archive marker.
func (a *Archive) VerifyOffsets(v Version) bool {
	h, err := a.makeHeader(v)
	if err != nil {
		return false
	}

	return checkDataOffsets(h, a.sortForWrite(h.xboxArchive()), math.MaxInt32) == nil
}

// Write emits the archive as version v. Xbox archives are sorted by
// byte-swapped hash; all others keep insertion order.
func (a *Archive) Write(w io.Writer, v Version, opts bsa.WriteOptions) error {
	opts.ApplyDefaults()

	h, err := a.makeHeader(v)
	if err != nil {
		return err
	}

	dirs := a.sortForWrite(h.xboxArchive())
	if err := checkDataOffsets(h, dirs, math.MaxUint32); err != nil {
		return err
	}

	bw := binio.NewWriter(w)
	writeHeader(bw, h)
	writeDirectoryEntries(bw, h, dirs)
	writeFileEntries(bw, h, dirs)
	if h.fileStrings() {
		writeFileNames(bw, dirs)
	}
	writeFileData(bw, h, dirs)

	if err := bw.Err(); err != nil {
		return fmt.Errorf("%w: write tes4 archive: %w", bsa.ErrIO, err)
	}

	opts.Logger.Debug("wrote tes4 archive",
		slog.Uint64("version", uint64(v)),
		slog.Uint64("directories", uint64(h.dirCount)),
		slog.Uint64("files", uint64(h.fileCount)),
		slog.Int64("bytes", bw.Written()),
	)
	return nil
}

// WriteFile writes the archive to path as version v.
func (a *Archive) WriteFile(path string, v Version, opts bsa.WriteOptions) error {
	return bsa.WriteFile(path, opts, func(w io.Writer) error {
		return a.Write(w, v, opts)
	})
}

// makeHeader computes record counts and name table sizes.
func (a *Archive) makeHeader(v Version) (header, error) {
	if !v.Valid() {
		return header{}, fmt.Errorf("%w: unsupported version %d", bsa.ErrMalformedHeader, v)
	}

	h := header{version: v, flags: a.Flags, types: a.Types}

	var dirCount, fileCount, dirNames, fileNames uint64
	for dirKey, dir := range a.All() {
		dirCount++
		if h.directoryStrings() {
			dirNames += uint64(len(dirKey.Name())) + 1
		}

		for fileKey := range dir.All() {
			fileCount++
			if h.fileStrings() {
				fileNames += uint64(len(fileKey.Name())) + 1
			}
		}
	}

	for _, n := range []uint64{dirCount, fileCount, dirNames, fileNames} {
		if n > math.MaxUint32 {
			return header{}, fmt.Errorf("%w: header field %d", bsa.ErrOffsetOverflow, n)
		}
	}

	h.dirCount = uint32(dirCount)      //nolint:gosec // bounded above
	h.fileCount = uint32(fileCount)    //nolint:gosec // bounded above
	h.dirNamesLen = uint32(dirNames)   //nolint:gosec // bounded above
	h.fileNamesLen = uint32(fileNames) //nolint:gosec // bounded above
	return h, nil
}

// sortForWrite snapshots directories and files in emission order.
func (a *Archive) sortForWrite(xbox bool) []writeDirectory {
	dirs := make([]writeDirectory, 0, a.Len())
	for dirKey, dir := range a.All() {
		wd := writeDirectory{key: dirKey, dir: dir, files: make([]writeFile, 0, dir.Len())}
		for fileKey, file := range dir.All() {
			wd.files = append(wd.files, writeFile{key: fileKey, file: file})
		}

		if xbox {
			slices.SortStableFunc(wd.files, func(x, y writeFile) int {
				return cmp.Compare(xboxSortKey(x.key), xboxSortKey(y.key))
			})
		}

		dirs = append(dirs, wd)
	}

	if xbox {
		slices.SortStableFunc(dirs, func(x, y writeDirectory) int {
			return cmp.Compare(xboxSortKey(x.key), xboxSortKey(y.key))
		})
	}

	return dirs
}

// xboxSortKey is the byte-swapped numeric hash Xbox archives are ordered by.
func xboxSortKey(k Key) uint64 {
	return bits.ReverseBytes64(k.Hash().Numeric())
}

// fileRecordSize returns the data span of one file: optional embedded name,
// optional decompressed-size prefix and the stored bytes.
func fileRecordSize(h header, dirName string, f writeFile) uint64 {
	size := uint64(f.file.Len())
	if h.embeddedFileNames() {
		size += 1 + uint64(len(dirName)) + 1 + uint64(len(f.key.Name()))
	}
	if f.file.Compressed() {
		size += 4
	}

	return size
}

// checkDataOffsets verifies that every name fits its length prefix and that
// every file size and data offset stays within limit.
func checkDataOffsets(h header, dirs []writeDirectory, limit uint64) error {
	offset := uint64(h.offsetOfFileData()) //nolint:gosec // derived from 32-bit fields
	for _, wd := range dirs {
		if h.directoryStrings() && len(wd.key.Name())+1 > math.MaxUint8 {
			return fmt.Errorf("%w: directory name %s", bsa.ErrStringTooLong, wd.key.Name())
		}

		for _, f := range wd.files {
			size := fileRecordSize(h, wd.key.Name(), f)
			if offset > limit || size >= uint64(sizeFlagCompression) {
				return fmt.Errorf("%w: %s\\%s at offset %d", bsa.ErrOffsetOverflow, wd.key.Name(), f.key.Name(), offset)
			}

			if h.embeddedFileNames() && len(wd.key.Name())+1+len(f.key.Name()) > math.MaxUint8 {
				return fmt.Errorf("%w: embedded name %s\\%s", bsa.ErrStringTooLong, wd.key.Name(), f.key.Name())
			}

			if n, ok := f.file.DecompressedSize(); ok && uint64(n) > math.MaxUint32 {
				return fmt.Errorf("%w: decompressed size of %s\\%s", bsa.ErrOffsetOverflow, wd.key.Name(), f.key.Name())
			}

			offset += size
		}
	}

	return nil
}

// writeDirectoryEntries emits one record per directory pointing at its file records.
func writeDirectoryEntries(w *binio.Writer, h header, dirs []writeDirectory) {
	offset := uint32(h.offsetOfFileEntries()) + h.fileNamesLen //nolint:gosec // derived from 32-bit fields
	for _, wd := range dirs {
		writeHash(w, wd.key.Hash(), h.order())
		w.WriteUint32(uint32(len(wd.files))) //nolint:gosec // bounded by makeHeader

		if h.version == VersionSSE {
			w.WriteUint32(0)
			w.WriteUint32(offset)
			w.WriteUint32(0)
		} else {
			w.WriteUint32(offset)
		}

		if h.directoryStrings() {
			offset += uint32(len(wd.key.Name())) + 2 //nolint:gosec // bzstring length fits u8
		}
		offset += fileEntrySize * uint32(len(wd.files)) //nolint:gosec // bounded by makeHeader
	}
}

// writeFileEntries emits each directory name followed by its file records.
func writeFileEntries(w *binio.Writer, h header, dirs []writeDirectory) {
	offset := uint32(h.offsetOfFileData()) //nolint:gosec // checked by checkDataOffsets
	for _, wd := range dirs {
		if h.directoryStrings() {
			w.WriteBZString(wd.key.Name())
		}

		for _, f := range wd.files {
			writeHash(w, f.key.Hash(), h.order())

			size := uint32(fileRecordSize(h, wd.key.Name(), f)) //nolint:gosec // checked by checkDataOffsets
			stored := size
			if h.compressed() != f.file.Compressed() {
				stored |= sizeFlagCompression
			}

			w.WriteUint32(stored)
			w.WriteUint32(offset)
			offset += size
		}
	}
}

// writeFileNames emits the NUL-terminated file name table.
func writeFileNames(w *binio.Writer, dirs []writeDirectory) {
	for _, wd := range dirs {
		for _, f := range wd.files {
			w.WriteZString(f.key.Name())
		}
	}
}

// writeFileData emits every payload with its optional embedded name and size prefix.
func writeFileData(w *binio.Writer, h header, dirs []writeDirectory) {
	for _, wd := range dirs {
		for _, f := range wd.files {
			if h.embeddedFileNames() {
				w.WriteBString(wd.key.Name() + `\` + f.key.Name())
			}

			if size, ok := f.file.DecompressedSize(); ok {
				w.WriteUint32(uint32(size)) //nolint:gosec // payload sizes are 32-bit on disk
			}

			w.WriteBytes(f.file.Bytes())
		}
	}
}

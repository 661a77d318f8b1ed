// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package tes4

import (
	"encoding/binary"
	"fmt"

	"github.com/woozymasta/bsa"
	"github.com/woozymasta/bsa/internal/binio"
)

// Version is the TES4 archive version field.
type Version uint32

// Known archive versions.
const (
	VersionTES4 Version = 103 // Oblivion
	VersionFO3  Version = 104 // Fallout 3 and New Vegas
	VersionTES5 Version = 104 // Skyrim
	VersionSSE  Version = 105 // Skyrim Special Edition
)

// Valid reports whether v is a supported version.
func (v Version) Valid() bool {
	return v == VersionTES4 || v == VersionFO3 || v == VersionSSE
}

// CodecFor returns the compression codec of version v: zlib before SSE, LZ4 frames after.
func CodecFor(v Version) bsa.Codec {
	if v == VersionSSE {
		return bsa.CodecLZ4Frame
	}

	return bsa.CodecZlib
}

// ArchiveFlag is a bit in the header flags field.
type ArchiveFlag uint32

// Archive flags.
const (
	FlagDirectoryStrings           ArchiveFlag = 1 << 0
	FlagFileStrings                ArchiveFlag = 1 << 1
	FlagCompressed                 ArchiveFlag = 1 << 2
	FlagRetainDirectoryNames       ArchiveFlag = 1 << 3
	FlagRetainFileNames            ArchiveFlag = 1 << 4
	FlagRetainFileNameOffsets      ArchiveFlag = 1 << 5
	FlagXboxArchive                ArchiveFlag = 1 << 6
	FlagRetainStringsDuringStartup ArchiveFlag = 1 << 7
	FlagEmbeddedFileNames          ArchiveFlag = 1 << 8
	FlagXboxCompressed             ArchiveFlag = 1 << 9
)

// Has reports whether every bit of flag is set.
func (f ArchiveFlag) Has(flag ArchiveFlag) bool { return f&flag == flag }

// ArchiveType is a bit in the header content-type field.
type ArchiveType uint16

// Archive content types.
const (
	TypeMeshes   ArchiveType = 1 << 0
	TypeTextures ArchiveType = 1 << 1
	TypeMenus    ArchiveType = 1 << 2
	TypeSounds   ArchiveType = 1 << 3
	TypeVoices   ArchiveType = 1 << 4
	TypeShaders  ArchiveType = 1 << 5
	TypeTrees    ArchiveType = 1 << 6
	TypeFonts    ArchiveType = 1 << 7
	TypeMisc     ArchiveType = 1 << 8
)

// Has reports whether every bit of t is set.
func (a ArchiveType) Has(t ArchiveType) bool { return a&t == t }

// Layout constants.
const (
	headerSize            = 0x24
	directoryEntrySize    = 0x10
	directoryEntrySizeSSE = 0x18
	fileEntrySize         = 0x10

	sizeFlagCompression uint32 = 1 << 30
	sizeFlagChecked     uint32 = 1 << 31
	offsetFlagSecondary uint32 = 1 << 31
)

// header is the fixed archive prologue.
type header struct {
	version      Version
	flags        ArchiveFlag
	types        ArchiveType
	dirCount     uint32
	fileCount    uint32
	dirNamesLen  uint32
	fileNamesLen uint32
}

// order returns the byte order of hash CRCs.
func (h header) order() binary.ByteOrder {
	if h.xboxArchive() {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

func (h header) compressed() bool       { return h.flags.Has(FlagCompressed) }
func (h header) directoryStrings() bool { return h.flags.Has(FlagDirectoryStrings) }
func (h header) fileStrings() bool      { return h.flags.Has(FlagFileStrings) }
func (h header) xboxArchive() bool      { return h.flags.Has(FlagXboxArchive) }

// embeddedFileNames is honored only after version 103.
func (h header) embeddedFileNames() bool {
	return h.version > VersionTES4 && h.flags.Has(FlagEmbeddedFileNames)
}

// directoryEntrySize returns the on-disk directory record size.
func (h header) directoryEntrySize() int64 {
	if h.version == VersionSSE {
		return directoryEntrySizeSSE
	}

	return directoryEntrySize
}

// offsetOfFileEntries is where per-directory name and file records start.
func (h header) offsetOfFileEntries() int64 {
	return headerSize + h.directoryEntrySize()*int64(h.dirCount)
}

// offsetOfFileStrings is where the file name table starts.
func (h header) offsetOfFileStrings() int64 {
	var dirStrings int64
	if h.directoryStrings() {
		dirStrings = int64(h.dirNamesLen) + int64(h.dirCount)
	}

	return h.offsetOfFileEntries() + dirStrings + int64(h.fileCount)*fileEntrySize
}

// offsetOfFileData is where the data block starts.
func (h header) offsetOfFileData() int64 {
	return h.offsetOfFileStrings() + int64(h.fileNamesLen)
}

// readHeader decodes and validates the fixed header.
func readHeader(r *binio.Reader) (header, error) {
	fields, err := r.ReadBytes(headerSize)
	if err != nil {
		return header{}, fmt.Errorf("%w: %w", bsa.ErrMalformedHeader, err)
	}

	le := binary.LittleEndian
	if magic := le.Uint32(fields[0:4]); magic != bsa.MagicTES4 {
		return header{}, fmt.Errorf("%w: magic 0x%08X", bsa.ErrMalformedHeader, magic)
	}

	h := header{
		version:      Version(le.Uint32(fields[4:8])),
		flags:        ArchiveFlag(le.Uint32(fields[12:16])),
		dirCount:     le.Uint32(fields[16:20]),
		fileCount:    le.Uint32(fields[20:24]),
		dirNamesLen:  le.Uint32(fields[24:28]),
		fileNamesLen: le.Uint32(fields[28:32]),
		types:        ArchiveType(le.Uint16(fields[32:34])),
	}

	if !h.version.Valid() {
		return header{}, fmt.Errorf("%w: unsupported version %d", bsa.ErrMalformedHeader, h.version)
	}

	if dirOffset := le.Uint32(fields[8:12]); dirOffset != headerSize {
		return header{}, fmt.Errorf("%w: directory offset 0x%X", bsa.ErrMalformedHeader, dirOffset)
	}

	return h, nil
}

// writeHeader encodes the fixed header.
func writeHeader(w *binio.Writer, h header) {
	w.WriteUint32(bsa.MagicTES4)
	w.WriteUint32(uint32(h.version))
	w.WriteUint32(headerSize)
	w.WriteUint32(uint32(h.flags))
	w.WriteUint32(h.dirCount)
	w.WriteUint32(h.fileCount)
	w.WriteUint32(h.dirNamesLen)
	w.WriteUint32(h.fileNamesLen)
	w.WriteUint16(uint16(h.types))
	w.WriteUint16(0)
}

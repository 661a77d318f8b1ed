// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Format is an archive revision.
type Format uint8

const (
	// FormatUnknown is the zero Format.
	FormatUnknown Format = iota
	// FormatTES3 is the Morrowind archive revision.
	FormatTES3
	// FormatTES4 is the "BSA\0" revision used from Oblivion to Skyrim SE.
	FormatTES4
	// FormatFO4 is the "BTDX" revision used by Fallout 4.
	FormatFO4
)

// Leading magic values of each revision.
const (
	MagicTES3 uint32 = 0x100
)

var (
	// MagicTES4 is the leading four-character code of TES4 archives.
	MagicTES4 = FourCC("BSA\x00")
	// MagicFO4 is the leading four-character code of FO4 archives.
	MagicFO4 = FourCC("BTDX")
)

// FourCC packs the first four bytes of s into a little-endian uint32.
func FourCC(s string) uint32 {
	var b [4]byte
	copy(b[:], s)
	return binary.LittleEndian.Uint32(b[:])
}

// String returns the revision name.
func (f Format) String() string {
	switch f {
	case FormatTES3:
		return "tes3"
	case FormatTES4:
		return "tes4"
	case FormatFO4:
		return "fo4"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// DetectFormatBytes identifies the revision from the first four bytes of src.
func DetectFormatBytes(src []byte) (Format, error) {
	if len(src) < 4 {
		return FormatUnknown, fmt.Errorf("%w: %d leading bytes", ErrUnknownFormat, len(src))
	}

	switch magic := binary.LittleEndian.Uint32(src); magic {
	case MagicTES3:
		return FormatTES3, nil
	case MagicTES4:
		return FormatTES4, nil
	case MagicFO4:
		return FormatFO4, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: magic 0x%08X", ErrUnknownFormat, magic)
	}
}

// DetectFormat identifies the revision of the archive at path.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	defer func() { _ = f.Close() }()

	var head [4]byte
	n, err := io.ReadFull(f, head[:])
	if err != nil && n < len(head) {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return DetectFormatBytes(head[:n])
		}

		return FormatUnknown, fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}

	return DetectFormatBytes(head[:])
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"errors"

	"github.com/woozymasta/bsa/internal/binio"
)

// Sentinel errors for archive operations. Use errors.Is in callers.
var (
	// ErrIO means the archive source could not be opened or read.
	ErrIO = errors.New("archive I/O failure")
	// ErrTruncatedInput means a read ran past the end of the source.
	ErrTruncatedInput = binio.ErrTruncatedInput
	// ErrStringTooLong means a name does not fit its on-disk length prefix.
	ErrStringTooLong = binio.ErrStringTooLong
	// ErrMalformedHeader means the archive magic, version, or fixed header fields are invalid.
	ErrMalformedHeader = errors.New("malformed archive header")
	// ErrMalformedRecord means a record inside the archive index is structurally invalid.
	ErrMalformedRecord = errors.New("malformed archive record")
	// ErrInvalidSentinel means a chunk sentinel does not match 0xBAADF00D.
	ErrInvalidSentinel = errors.New("chunk sentinel mismatch")
	// ErrDuplicateKey means two entries in one container share a hash.
	ErrDuplicateKey = errors.New("duplicate archive key")
	// ErrEncoding means a text conversion failed.
	ErrEncoding = errors.New("text encoding failure")
	// ErrUnknownFormat means the leading bytes match no supported archive revision.
	ErrUnknownFormat = errors.New("unknown archive format")
	// ErrDecompressedSize means decompressed output length differs from the declared size.
	ErrDecompressedSize = errors.New("decompressed size mismatch")
	// ErrOffsetOverflow means a size or offset does not fit its on-disk field.
	ErrOffsetOverflow = errors.New("size or offset exceeds format limit")
	// ErrNilCodec means a compression operation was called without a codec.
	ErrNilCodec = errors.New("codec is nil")
	// ErrUnknownCodec means a codec name is not registered.
	ErrUnknownCodec = errors.New("unknown codec")
	// ErrNilSource means a read was called with a nil source.
	ErrNilSource = errors.New("source is nil")
	// ErrInvalidMatchRules means one or more name match rules are invalid.
	ErrInvalidMatchRules = errors.New("invalid name match rules")
	// ErrInvalidExtractPath means an archive name cannot be mapped to an output path.
	ErrInvalidExtractPath = errors.New("invalid extract path")
	// ErrExtractPathOutsideRoot means a resolved extraction path escapes the destination root.
	ErrExtractPathOutsideRoot = errors.New("extract path escapes destination root")
)

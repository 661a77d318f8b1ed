// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package tes4

import (
	"cmp"
	"encoding/binary"
	"fmt"

	"github.com/woozymasta/bsa"
	"github.com/woozymasta/bsa/internal/binio"
)

// Hash is the TES4 name hash. On disk the four bytes come first, then the
// CRC in archive byte order.
type Hash struct {
	Last   uint8  `json:"last" yaml:"last"`
	Last2  uint8  `json:"last2" yaml:"last2"`
	Length uint8  `json:"length" yaml:"length"`
	First  uint8  `json:"first" yaml:"first"`
	CRC    uint32 `json:"crc" yaml:"crc"`
}

// hashCRCMultiplier is the rolling multiplier of the name CRC.
const hashCRCMultiplier = 0x1003F

// extensionTable biases file hashes for the listed extensions by their index.
var extensionTable = [...]uint32{
	bsa.FourCC(""),
	bsa.FourCC(".nif"),
	bsa.FourCC(".kf"),
	bsa.FourCC(".dds"),
	bsa.FourCC(".wav"),
	bsa.FourCC(".adp"),
}

// Numeric packs the hash into one 64-bit value.
func (h Hash) Numeric() uint64 {
	return uint64(h.Last) |
		uint64(h.Last2)<<8 |
		uint64(h.Length)<<16 |
		uint64(h.First)<<24 |
		uint64(h.CRC)<<32
}

// Compare orders hashes by their numeric value.
func (h Hash) Compare(other Hash) int {
	return cmp.Compare(h.Numeric(), other.Numeric())
}

// HashDirectory normalizes path and hashes it as a directory name.
func HashDirectory(path string) (Hash, string) {
	name := bsa.NormalizePath(path)
	return hashName(name), name
}

// HashFile normalizes path, keeps its last component and hashes it as a file
// name. Names without a stem, or with an extension of 16 bytes or more, hash to zero.
func HashFile(path string) (Hash, string) {
	name := bsa.NormalizePath(path)
	_, name = bsa.SplitPath(name)

	stem, ext := bsa.SplitExt(name)
	if stem == "" || len(stem) >= bsa.MaxPathLength || len(ext) >= 16 {
		return Hash{}, name
	}

	h := hashName(stem)
	h.CRC += nameCRC(ext)

	extCode := bsa.FourCC(ext)
	for i, code := range extensionTable {
		if code != extCode {
			continue
		}

		idx := uint8(i) //nolint:gosec // table has six entries
		h.First += 32 * (idx & 0xFC)
		h.Last += (idx & 0xFE) << 6
		h.Last2 += idx << 7
		break
	}

	return h, name
}

// hashName hashes an already normalized name.
func hashName(s string) Hash {
	var h Hash
	n := len(s)
	if n >= 3 {
		h.Last2 = s[n-2]
	}
	if n >= 1 {
		h.Last = s[n-1]
		h.First = s[0]
	}

	h.Length = uint8(n) //nolint:gosec // the format stores the length modulo 256
	if h.Length > 3 {
		h.CRC = nameCRC(s[1 : n-2])
	}

	return h
}

// nameCRC is the rolling multiply-add checksum used by TES4 hashes.
func nameCRC(s string) uint32 {
	var crc uint32
	for i := 0; i < len(s); i++ {
		crc = uint32(s[i]) + crc*hashCRCMultiplier
	}

	return crc
}

// readHash decodes one hash with its CRC in the given byte order.
func readHash(r *binio.Reader, order binary.ByteOrder) (Hash, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return Hash{}, fmt.Errorf("hash: %w", err)
	}

	h := Hash{Last: b[0], Last2: b[1], Length: b[2], First: b[3]}
	if h.CRC, err = r.ReadUint32Order(order); err != nil {
		return Hash{}, fmt.Errorf("hash: %w", err)
	}

	return h, nil
}

// writeHash encodes one hash with its CRC in the given byte order.
func writeHash(w *binio.Writer, h Hash, order binary.ByteOrder) {
	w.WriteUint8(h.Last)
	w.WriteUint8(h.Last2)
	w.WriteUint8(h.Length)
	w.WriteUint8(h.First)
	w.WriteUint32Order(h.CRC, order)
}

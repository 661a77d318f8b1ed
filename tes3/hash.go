// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package tes3

import (
	"cmp"
	"math/bits"

	"github.com/woozymasta/bsa"
)

// Hash is the two-word Morrowind name hash.
type Hash struct {
	Lo uint32 `json:"lo" yaml:"lo"`
	Hi uint32 `json:"hi" yaml:"hi"`
}

// Numeric returns the hash as one 64-bit value, Hi in the low word.
func (h Hash) Numeric() uint64 {
	return uint64(h.Hi) | uint64(h.Lo)<<32
}

// Compare orders hashes by their numeric value.
func (h Hash) Compare(other Hash) int {
	return cmp.Compare(h.Numeric(), other.Numeric())
}

// HashFile normalizes path and hashes it. The first half of the name is
// xor-folded into Lo; the second half is xor-rotated into Hi.
func HashFile(path string) (Hash, string) {
	name := bsa.NormalizePath(path)

	var h Hash
	mid := len(name) / 2
	for i := 0; i < mid; i++ {
		h.Lo ^= uint32(name[i]) << uint(i%4*8)
	}

	for i := mid; i < len(name); i++ {
		rot := uint32(name[i]) << uint((i-mid)%4*8)
		h.Hi = bits.RotateLeft32(h.Hi^rot, -int(rot&31))
	}

	return h, name
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

// Key identifies one entry by its format hash. The name is kept only for
// round-tripping and display; equality is decided by the hash alone.
type Key[H comparable] struct {
	hash H
	name string
}

// NewKey returns a key for hash with the given name.
func NewKey[H comparable](hash H, name string) Key[H] {
	return Key[H]{hash: hash, name: name}
}

// Hash returns the format hash.
func (k Key[H]) Hash() H { return k.hash }

// Name returns the stored name, which may be empty for keys built from a bare hash.
func (k Key[H]) Name() string { return k.name }

// Equal reports whether both keys carry the same hash.
func (k Key[H]) Equal(other Key[H]) bool { return k.hash == other.hash }

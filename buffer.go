// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

// Ownership describes who keeps the bytes of a Buffer alive.
type Ownership uint8

const (
	// View borrows bytes whose lifetime the caller guarantees.
	View Ownership = iota
	// Owned holds an exclusive allocation.
	Owned
	// Proxied holds bytes kept alive by a cooperating owner, such as a mapped Source.
	Proxied
)

// String returns the ownership mode name.
func (o Ownership) String() string {
	switch o {
	case View:
		return "view"
	case Owned:
		return "owned"
	case Proxied:
		return "proxied"
	default:
		return "unknown"
	}
}

// Buffer is a byte range in one of three ownership modes.
// The zero value is an empty View.
type Buffer struct {
	data  []byte
	owner any
	mode  Ownership
}

// Bytes returns the current bytes. Callers must treat the result as read-only.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the number of stored bytes.
func (b *Buffer) Len() int { return len(b.data) }

// Empty reports whether the buffer holds no bytes.
func (b *Buffer) Empty() bool { return len(b.data) == 0 }

// Ownership returns the active representation.
func (b *Buffer) Ownership() Ownership { return b.mode }

// Owner returns the handle that keeps proxied bytes alive, or nil.
func (b *Buffer) Owner() any { return b.owner }

// SetView borrows data without copying.
func (b *Buffer) SetView(data []byte) {
	b.data, b.owner, b.mode = data, nil, View
}

// SetOwned takes exclusive ownership of data. Callers must not retain data.
func (b *Buffer) SetOwned(data []byte) {
	b.data, b.owner, b.mode = data, nil, Owned
}

// SetProxied stores data backed by owner. A nil owner degrades to a View.
func (b *Buffer) SetProxied(data []byte, owner any) {
	if owner == nil {
		b.SetView(data)
		return
	}

	b.data, b.owner, b.mode = data, owner, Proxied
}

// Detach copies the bytes into a fresh Owned allocation.
func (b *Buffer) Detach() {
	if b.mode == Owned {
		return
	}

	b.SetOwned(append([]byte(nil), b.data...))
}

// Clear resets the buffer to an empty View.
func (b *Buffer) Clear() {
	b.data, b.owner, b.mode = nil, nil, View
}

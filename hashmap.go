// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"fmt"
	"iter"
	"slices"
)

// mapEntry stores one key with a stable pointer to its value.
type mapEntry[H comparable, V any] struct {
	key   Key[H]
	value *V
}

// Map is an insertion-ordered index from Key to V with unique hashes.
// The zero value is ready to use. Map is not safe for concurrent mutation.
type Map[H comparable, V any] struct {
	entries []mapEntry[H, V]
	index   map[H]int
}

// Len returns the number of entries.
func (m *Map[H, V]) Len() int { return len(m.entries) }

// Empty reports whether the map has no entries.
func (m *Map[H, V]) Empty() bool { return len(m.entries) == 0 }

// Insert appends value under key and returns a pointer for in-place construction.
// A key whose hash is already present is rejected with ErrDuplicateKey.
func (m *Map[H, V]) Insert(key Key[H], value V) (*V, error) {
	if m.index == nil {
		m.index = make(map[H]int)
	}

	if i, ok := m.index[key.hash]; ok {
		return nil, fmt.Errorf("%w: %q collides with %q", ErrDuplicateKey, key.name, m.entries[i].key.name)
	}

	v := new(V)
	*v = value
	m.index[key.hash] = len(m.entries)
	m.entries = append(m.entries, mapEntry[H, V]{key: key, value: v})
	return v, nil
}

// Get returns the value stored under hash.
func (m *Map[H, V]) Get(hash H) (*V, bool) {
	i, ok := m.index[hash]
	if !ok {
		return nil, false
	}

	return m.entries[i].value, true
}

// Lookup returns the key and value stored under hash.
func (m *Map[H, V]) Lookup(hash H) (Key[H], *V, bool) {
	i, ok := m.index[hash]
	if !ok {
		return Key[H]{}, nil, false
	}

	e := m.entries[i]
	return e.key, e.value, true
}

// Contains reports whether hash is present.
func (m *Map[H, V]) Contains(hash H) bool {
	_, ok := m.index[hash]
	return ok
}

// At returns the i-th entry in iteration order.
func (m *Map[H, V]) At(i int) (Key[H], *V) {
	e := m.entries[i]
	return e.key, e.value
}

// Erase removes the entry under hash, keeping the order of the rest.
func (m *Map[H, V]) Erase(hash H) bool {
	i, ok := m.index[hash]
	if !ok {
		return false
	}

	delete(m.index, hash)
	m.entries = slices.Delete(m.entries, i, i+1)
	for j := i; j < len(m.entries); j++ {
		m.index[m.entries[j].key.hash] = j
	}

	return true
}

// Clear removes all entries and keeps the allocated capacity.
func (m *Map[H, V]) Clear() {
	clear(m.entries)
	m.entries = m.entries[:0]
	clear(m.index)
}

// All iterates entries in insertion order.
func (m *Map[H, V]) All() iter.Seq2[Key[H], *V] {
	return func(yield func(Key[H], *V) bool) {
		for _, e := range m.entries {
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Map[H, V]) Keys() []Key[H] {
	keys := make([]Key[H], len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.key
	}

	return keys
}

// SortFunc reorders entries by hash using cmp. The sort is stable.
func (m *Map[H, V]) SortFunc(cmp func(a, b H) int) {
	slices.SortStableFunc(m.entries, func(a, b mapEntry[H, V]) int {
		return cmp(a.key.hash, b.key.hash)
	})
	for i, e := range m.entries {
		m.index[e.key.hash] = i
	}
}

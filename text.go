// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeUTF16 converts UTF-16 code units to UTF-8. Unpaired surrogates fail with ErrEncoding.
func DecodeUTF16(units []uint16) (string, error) {
	for i := 0; i < len(units); i++ {
		u := rune(units[i])
		switch {
		case utf16.IsSurrogate(u) && u < 0xDC00:
			if i+1 >= len(units) || !isLowSurrogate(rune(units[i+1])) {
				return "", fmt.Errorf("%w: unpaired high surrogate at %d", ErrEncoding, i)
			}
			i++
		case isLowSurrogate(u):
			return "", fmt.Errorf("%w: unpaired low surrogate at %d", ErrEncoding, i)
		}
	}

	return string(utf16.Decode(units)), nil
}

// EncodeUTF16 converts UTF-8 to UTF-16 code units. Invalid UTF-8 fails with ErrEncoding.
func EncodeUTF16(s string) ([]uint16, error) {
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrEncoding)
	}

	return utf16.Encode([]rune(s)), nil
}

// DecodeWindows1252 converts legacy code page 1252 names to UTF-8.
func DecodeWindows1252(b []byte) (string, error) {
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	return string(out), nil
}

// EncodeWindows1252 converts UTF-8 to code page 1252. Unrepresentable runes fail with ErrEncoding.
func EncodeWindows1252(s string) ([]byte, error) {
	out, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	return out, nil
}

// isLowSurrogate reports whether u is a trailing surrogate.
func isLowSurrogate(u rune) bool {
	return u >= 0xDC00 && u <= 0xDFFF
}

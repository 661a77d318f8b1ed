// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"fmt"
	"hash/fnv"
	"path"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxSegmentLen bounds one sanitized path segment in bytes.
const maxSegmentLen = 240

// SanitizePath rewrites one archive name to a deterministic relative slash
// path that Windows, macOS and Linux filesystems all accept.
func SanitizePath(name string) (string, error) {
	segments := strings.FieldsFunc(name, func(r rune) bool { return r == '\\' || r == '/' })

	out := segments[:0]
	for _, segment := range segments {
		if segment == "." {
			continue
		}
		out = append(out, sanitizeSegment(segment))
	}
	if len(out) == 0 {
		return "_", nil
	}

	joined := strings.Join(out, "/")
	if _, err := normalizeExtractPath(joined); err != nil {
		return "", err
	}

	return joined, nil
}

// sanitizeMemberNames returns a copy of members with sanitized names.
// Names equal ignoring case get a "~N" suffix in member order.
func sanitizeMemberNames(members []Member) ([]Member, error) {
	out := make([]Member, len(members))
	taken := make(map[string]int, len(members))

	for i, member := range members {
		name, err := SanitizePath(member.Name)
		if err != nil {
			return nil, fmt.Errorf("sanitize %s: %w", member.Name, err)
		}

		out[i] = member
		out[i].Name = claimName(name, taken)
	}

	return out, nil
}

// claimName records name in taken and returns it, or the first free "~N"
// variant when a case-insensitive equal name was claimed before.
func claimName(name string, taken map[string]int) string {
	key := strings.ToLower(name)
	next, seen := taken[key]
	if !seen {
		taken[key] = 2
		return name
	}

	dir, base := path.Split(name)
	for ; ; next++ {
		candidate := dir + suffixed(base, "~"+strconv.Itoa(next))
		candidateKey := strings.ToLower(candidate)
		if _, used := taken[candidateKey]; used {
			continue
		}

		taken[key] = next + 1
		taken[candidateKey] = 2
		return candidate
	}
}

// sanitizeSegment replaces characters Windows rejects, drops trailing dots
// and spaces, escapes device names and bounds the length.
func sanitizeSegment(segment string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == utf8.RuneError || unicode.Is(unicode.Cf, r) || strings.ContainsRune(`<>:"|?*`, r) {
			return '_'
		}
		return r
	}, segment)

	s = strings.TrimRight(s, ". ")
	if s == "" {
		return "_"
	}
	if isDeviceName(s) {
		s = "_" + s
	}

	return shortenSegment(s)
}

// isDeviceName reports whether Windows resolves segment to a device
// regardless of its extension.
func isDeviceName(segment string) bool {
	stem, _, _ := strings.Cut(segment, ".")
	stem = strings.ToLower(strings.TrimRight(stem, " "))

	switch stem {
	case "con", "prn", "aux", "nul", "conin$", "conout$", "clock$":
		return true
	}

	if len(stem) == 4 && (strings.HasPrefix(stem, "com") || strings.HasPrefix(stem, "lpt")) {
		return stem[3] >= '0' && stem[3] <= '9'
	}

	return false
}

// shortenSegment cuts s to maxSegmentLen, keeping its extension and adding an
// FNV-1a tag of the full segment so distinct long names stay distinct.
func shortenSegment(s string) string {
	if len(s) <= maxSegmentLen {
		return s
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return suffixed(s, fmt.Sprintf("~%08x", h.Sum32()))
}

// suffixed inserts tag before the extension of base, trimming the stem so
// the result fits maxSegmentLen.
func suffixed(base, tag string) string {
	ext := path.Ext(base)
	if len(ext)+len(tag) >= maxSegmentLen {
		ext = ""
	}

	stem := strings.TrimSuffix(base, ext)
	if limit := maxSegmentLen - len(ext) - len(tag); len(stem) > limit {
		stem = truncateUTF8(stem, limit)
	}

	return stem + tag + ext
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	for n > 0 && n < len(s) && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n]
}

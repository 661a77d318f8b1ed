// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"fmt"
	"strings"

	"github.com/woozymasta/pathrules"
)

// NameMatcher selects archive names with gitignore-style rules.
// A nil matcher accepts every name.
type NameMatcher struct {
	matcher *pathrules.Matcher
}

// NewNameMatcher compiles rules. Patterns may use either separator.
// An empty rule set returns a nil matcher.
func NewNameMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*NameMatcher, error) {
	rules = normalizeMatchRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidMatchRules, err)
	}

	return &NameMatcher{matcher: matcher}, nil
}

// Match reports whether name is included.
func (m *NameMatcher) Match(name string) bool {
	if m == nil || m.matcher == nil {
		return true
	}

	candidate := matchPath(name)
	if candidate == "" {
		return false
	}

	return m.matcher.Included(candidate, false)
}

// Select returns the keys of m whose names match, in iteration order.
func Select[H comparable, V any](m *Map[H, V], matcher *NameMatcher) []Key[H] {
	keys := make([]Key[H], 0, m.Len())
	for key := range m.All() {
		if matcher.Match(key.Name()) {
			keys = append(keys, key)
		}
	}

	return keys
}

// FilterMembers keeps members whose names match.
func FilterMembers(members []Member, matcher *NameMatcher) []Member {
	if matcher == nil {
		return members
	}

	out := make([]Member, 0, len(members))
	for _, member := range members {
		if matcher.Match(member.Name) {
			out = append(out, member)
		}
	}

	return out
}

// normalizeMatchRules converts patterns to slash form and drops empty ones.
func normalizeMatchRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := matchPattern(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// matchPattern converts a rule pattern to slash form. Leading and trailing
// slashes keep their anchor and dir-only meaning.
func matchPattern(pattern string) string {
	pattern = strings.TrimSpace(pattern)
	pattern = strings.ReplaceAll(pattern, `\`, `/`)
	return strings.TrimPrefix(pattern, "./")
}

// matchPath converts an archive name to the slash-separated form used by pathrules.
func matchPath(name string) string {
	return strings.Trim(matchPattern(name), "/")
}

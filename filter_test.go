// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Maxim Levchenko (WoozyMasta)
// Source: github.com/woozymasta/bsa

package bsa

import (
	"errors"
	"slices"
	"testing"

	"github.com/woozymasta/pathrules"
)

func includeRules(patterns ...string) []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		rules = append(rules, pathrules.Rule{
			Action:  pathrules.ActionInclude,
			Pattern: pattern,
		})
	}

	return rules
}

func TestNameMatcherMatch(t *testing.T) {
	t.Parallel()

	matcher, err := NewNameMatcher(includeRules(
		"*.dds",
		`meshes\clutter\`,
		"/sound/voice/**/*.fuz",
	), pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   pathrules.ActionExclude,
	})
	if err != nil {
		t.Fatalf("NewNameMatcher: %v", err)
	}

	cases := []struct {
		name string
		path string
		want bool
	}{
		{name: "extension rule", path: `textures\sky\clouds.DDS`, want: true},
		{name: "dir-only rule", path: `meshes\clutter\bucket01.nif`, want: true},
		{name: "anchored root match", path: `sound\voice\skyrim.esm\femalenord\hello.fuz`, want: true},
		{name: "anchored root miss", path: `x\sound\voice\a.fuz`, want: false},
		{name: "no match", path: `scripts\quest.pex`, want: false},
		{name: "empty", path: "", want: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := matcher.Match(tc.path); got != tc.want {
				t.Fatalf("Match(%q)=%v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestNameMatcherNil(t *testing.T) {
	t.Parallel()

	matcher, err := NewNameMatcher(includeRules("", "  ", "./"), pathrules.MatcherOptions{})
	if err != nil {
		t.Fatalf("NewNameMatcher(empty): %v", err)
	}
	if matcher != nil {
		t.Fatal("empty rule set must compile to a nil matcher")
	}
	if !matcher.Match(`anything\at\all.nif`) {
		t.Fatal("nil matcher must accept every name")
	}
}

func TestNameMatcherInvalidRule(t *testing.T) {
	t.Parallel()

	_, err := NewNameMatcher([]pathrules.Rule{
		{Action: pathrules.ActionUnknown, Pattern: "*.nif"},
	}, pathrules.MatcherOptions{
		DefaultAction: pathrules.ActionExclude,
	})
	if !errors.Is(err, ErrInvalidMatchRules) {
		t.Fatalf("NewNameMatcher err=%v, want ErrInvalidMatchRules", err)
	}
}

func TestSelectAndFilterMembers(t *testing.T) {
	t.Parallel()

	matcher, err := NewNameMatcher([]pathrules.Rule{
		{Action: pathrules.ActionInclude, Pattern: "textures/**"},
		{Action: pathrules.ActionExclude, Pattern: "textures/lod/**"},
	}, pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   pathrules.ActionExclude,
	})
	if err != nil {
		t.Fatalf("NewNameMatcher: %v", err)
	}

	var m Map[uint32, testRecord]
	names := []string{`textures\a.dds`, `meshes\a.nif`, `textures\lod\b.dds`, `TEXTURES\c.dds`}
	for i, name := range names {
		if _, err := m.Insert(NewKey(uint32(i), name), testRecord{}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	var selected []string
	for _, key := range Select(&m, matcher) {
		selected = append(selected, key.Name())
	}
	want := []string{`textures\a.dds`, `TEXTURES\c.dds`}
	if !slices.Equal(selected, want) {
		t.Fatalf("Select=%v, want %v", selected, want)
	}

	members := make([]Member, 0, len(names))
	for _, name := range names {
		members = append(members, Member{Name: name})
	}

	filtered := FilterMembers(members, matcher)
	if len(filtered) != 2 || filtered[0].Name != want[0] || filtered[1].Name != want[1] {
		t.Fatalf("FilterMembers=%v", filtered)
	}
	if got := FilterMembers(members, nil); len(got) != len(members) {
		t.Fatalf("FilterMembers(nil)=%d members, want %d", len(got), len(members))
	}
}

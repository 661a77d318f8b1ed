// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// InventoryEntry describes one member with a digest of its decompressed payload.
type InventoryEntry struct {
	// Name is the archive path.
	Name string `json:"name" yaml:"name"`
	// Digest is the hex BLAKE3-256 of the decompressed payload.
	Digest string `json:"blake3" yaml:"blake3"`
	// StoredSize is the on-disk payload length.
	StoredSize int64 `json:"stored_size" yaml:"stored_size"`
	// Size is the decompressed payload length.
	Size int64 `json:"size" yaml:"size"`
	// Compressed reports whether the payload is stored compressed.
	Compressed bool `json:"compressed,omitempty" yaml:"compressed,omitempty"`
}

// Inventory is a content listing of one archive.
type Inventory struct {
	// Format is the archive revision.
	Format Format `json:"format" yaml:"format"`
	// Entries follow archive order.
	Entries []InventoryEntry `json:"entries" yaml:"entries"`
}

// BuildInventory digests selected members in parallel. Entry order matches members.
func BuildInventory(ctx context.Context, format Format, members []Member, opts InventoryOptions) (*Inventory, error) {
	opts.applyDefaults()

	matcher, err := NewNameMatcher(opts.Include, opts.MatcherOptions)
	if err != nil {
		return nil, err
	}

	selected := FilterMembers(members, matcher)
	entries := make([]InventoryEntry, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxWorkers)
	for i, member := range selected {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			data, err := openMember(member)
			if err != nil {
				return err
			}

			sum := blake3.Sum256(data)
			runtime.KeepAlive(member.Open)
			entries[i] = InventoryEntry{
				Name:       member.Name,
				Digest:     hex.EncodeToString(sum[:]),
				StoredSize: member.StoredSize,
				Size:       int64(len(data)),
				Compressed: member.Compressed,
			}

			opts.Logger.DebugContext(gctx, "inventory member",
				slog.String("name", member.Name),
				slog.Int64("size", entries[i].Size),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Inventory{Format: format, Entries: entries}, nil
}

// WriteYAML encodes the inventory as YAML.
func (inv *Inventory) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(inv); err != nil {
		_ = enc.Close()
		return fmt.Errorf("encode inventory: %w", err)
	}

	return enc.Close()
}

// openMember materializes one member payload.
func openMember(member Member) ([]byte, error) {
	if member.Open == nil {
		return nil, nil
	}

	data, err := member.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", member.Name, err)
	}

	return data, nil
}
